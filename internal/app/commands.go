package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"talent_testimonials/internal/domain"
)

// upsert batch size; keeps each multi-row INSERT well under max_allowed_packet
const ingestBatch = 200

type IngestionService struct {
	cms     domain.CMSClient
	repo    domain.ReviewWriter
	cache   domain.Cache
	workers int
}

type IngestReport struct {
	Fetched        int
	Stored         int
	Skipped        int
	InvalidRatings int
}

func NewIngestionService(c domain.CMSClient, r domain.ReviewWriter, cache domain.Cache, workers int) *IngestionService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionService{cms: c, repo: r, cache: cache, workers: workers}
}

// Sync copies the published testimonials from the CMS into the review store
// and drops the cached snapshot so the next page render sees them.
func (s *IngestionService) Sync(ctx context.Context) (IngestReport, error) {
	var rep IngestReport

	payloads, err := s.cms.ListTestimonials(ctx)
	if err != nil {
		return rep, fmt.Errorf("list testimonials: %w", err)
	}
	rep.Fetched = len(payloads)

	reviews, skipped, invalid := mapTestimonials(payloads)
	rep.Skipped, rep.InvalidRatings = skipped, invalid

	if err := s.upsertBatches(ctx, reviews); err != nil {
		return rep, err
	}
	rep.Stored = len(reviews)

	// even if nothing was stored, drop the cached snapshot to avoid serving stale data
	if s.cache != nil {
		if err := s.cache.Del(ctx, SnapshotCacheKey); err != nil {
			log.Warn().Err(err).Msg("invalidate snapshot cache failed")
		}
	}
	return rep, nil
}

func (s *IngestionService) upsertBatches(ctx context.Context, rs []domain.Review) error {
	sem := semaphore.NewWeighted(int64(s.workers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(rs); start += ingestBatch {
		batch := rs[start:min(start+ingestBatch, len(rs))]

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(b []domain.Review) {
			defer wg.Done()
			defer sem.Release(1)
			if err := s.repo.UpsertReviews(ctx, b); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("upsert %d reviews: %w", len(b), err)
				}
				mu.Unlock()
			}
		}(batch)
	}

	wg.Wait()
	return firstErr
}
