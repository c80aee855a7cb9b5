package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

const SnapshotCacheKey = "testimonials:snapshot"

type QueryService struct {
	store         domain.ReviewStore
	featuredLimit int
	fetchTimeout  time.Duration
}

func NewQueryService(s domain.ReviewStore, featuredLimit int, fetchTimeout time.Duration) *QueryService {
	return &QueryService{store: s, featuredLimit: featuredLimit, fetchTimeout: fetchTimeout}
}

// Page runs the whole fetch/summarize/filter/paginate sequence on one snapshot.
func (s *QueryService) Page(ctx context.Context, req domain.FilterRequest) (domain.TestimonialsView, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return domain.TestimonialsView{}, err
	}
	ranked := Rank(Filter(rs, req))
	return domain.TestimonialsView{
		Summary:  Summarize(rs),
		Featured: SelectFeatured(rs, s.featuredLimit),
		Filter:   req,
		Page:     Paginate(ranked, req.Page, req.PageSize),
	}, nil
}

func (s *QueryService) Summary(ctx context.Context) (domain.Summary, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return Summarize(rs), nil
}

// Featured uses the configured limit when limit <= 0.
func (s *QueryService) Featured(ctx context.Context, limit int) ([]domain.Review, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.featuredLimit
	}
	return SelectFeatured(rs, limit), nil
}

func (s *QueryService) snapshot(ctx context.Context) ([]domain.Review, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	rs, err := s.store.FetchAll(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		log.Error().Err(err).Msg("fetch reviews failed")
		return nil, err
	}
	observability.SetSnapshotSize(len(rs))
	return SanitizeRatings("snapshot", rs), nil
}

// CachedStore caches the review snapshot only; statistics and views are
// recomputed on every request.
type CachedStore struct {
	next  domain.ReviewStore
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedStore(next domain.ReviewStore, c domain.Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: c, ttl: ttl}
}

func (s *CachedStore) FetchAll(ctx context.Context) ([]domain.Review, error) {
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, SnapshotCacheKey, &out); ok {
		return out, nil
	}
	rs, err := s.next.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	// copy so later cache writes can't alias the store's backing array
	out = slices.Clone(rs)
	if err := s.cache.Set(ctx, SnapshotCacheKey, out, int(s.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Msg("cache snapshot failed")
	}
	return out, nil
}

func (s *CachedStore) Invalidate(ctx context.Context) error {
	return s.cache.Del(ctx, SnapshotCacheKey)
}
