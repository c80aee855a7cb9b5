package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"talent_testimonials/internal/app"
	"talent_testimonials/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	rs    []domain.Review
	err   error
	calls int
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]domain.Review, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rs, nil
}

// fakeCache round-trips through JSON like the real adapters do.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestQueryService_Page(t *testing.T) {
	rs := sevenReviews()
	rs[2].Featured = true
	store := &fakeStore{rs: rs}
	q := app.NewQueryService(store, 3, time.Second)

	view, err := q.Page(context.Background(), domain.FilterRequest{
		Rating: domain.RatingFourPlus, Service: domain.ServiceAll, Page: 2, PageSize: 3,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single fetch per request, got %d", store.calls)
	}
	// summary ignores the active filter
	if view.Summary.Count != 7 || view.Summary.AverageRating == nil || *view.Summary.AverageRating != 4.3 {
		t.Fatalf("unexpected summary: %+v", view.Summary)
	}
	if view.TotalPages != 2 || len(view.Items) != 2 || view.Items[0].ID != 7 || view.Items[1].ID != 3 {
		t.Fatalf("unexpected page: %+v", view.Page)
	}
	if len(view.Featured) != 1 || view.Featured[0].ID != 3 {
		t.Fatalf("unexpected featured: %+v", view.Featured)
	}
	if view.Filter.Rating != domain.RatingFourPlus {
		t.Fatalf("filter not echoed: %+v", view.Filter)
	}
}

func TestQueryService_StoreUnavailable(t *testing.T) {
	q := app.NewQueryService(&fakeStore{err: errors.New("dial tcp: connection refused")}, 3, time.Second)

	if _, err := q.Page(context.Background(), domain.FilterRequest{Page: 1, PageSize: 9}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := q.Summary(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := q.Featured(context.Background(), 0); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

type slowStore struct{}

func (slowStore) FetchAll(ctx context.Context) ([]domain.Review, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestQueryService_FetchTimeout(t *testing.T) {
	q := app.NewQueryService(slowStore{}, 3, 20*time.Millisecond)

	start := time.Now()
	_, err := q.Summary(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable + deadline, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("fetch timeout not applied")
	}
}

func TestQueryService_InvalidRatingTreatedAsUnrated(t *testing.T) {
	rs := []domain.Review{
		{ID: 1, Rating: ptr(5), PublishedAt: day0},
		{ID: 2, Rating: ptr(0), PublishedAt: day0},
		{ID: 3, Rating: ptr(11), PublishedAt: day0},
	}
	q := app.NewQueryService(&fakeStore{rs: rs}, 3, time.Second)

	s, err := q.Summary(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s.Count != 3 || s.RatedCount != 1 || *s.AverageRating != 5 {
		t.Fatalf("invalid ratings skewed the summary: %+v", s)
	}

	view, _ := q.Page(context.Background(), domain.FilterRequest{Rating: domain.RatingFourPlus, Page: 1, PageSize: 9})
	if view.Total != 1 || view.Items[0].ID != 1 {
		t.Fatalf("invalid ratings matched a star filter: %+v", view.Items)
	}
	// input snapshot untouched
	if *rs[2].Rating != 11 {
		t.Fatalf("sanitising mutated the store's records")
	}
}

func TestQueryService_FeaturedDefaultLimit(t *testing.T) {
	rs := sevenReviews()
	for i := range rs {
		rs[i].Featured = true
	}
	q := app.NewQueryService(&fakeStore{rs: rs}, 2, time.Second)

	got, _ := q.Featured(context.Background(), 0)
	if len(got) != 2 || got[0].ID != 7 {
		t.Fatalf("unexpected featured: %+v", ids(got))
	}
	got, _ = q.Featured(context.Background(), 5)
	if len(got) != 5 {
		t.Fatalf("explicit limit ignored: %d", len(got))
	}
}

func TestCachedStore_MissThenHit(t *testing.T) {
	store := &fakeStore{rs: []domain.Review{{ID: 1, Body: "Ana placed our whole team"}}}
	cache := &fakeCache{}
	cs := app.NewCachedStore(store, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	out, err := cs.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].Body != "Ana placed our whole team" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Change store, call again -> should come from cache
	store.rs[0].Body = "Changed"
	out2, _ := cs.FetchAll(context.Background())
	if out2[0].Body != "Ana placed our whole team" {
		t.Fatalf("expected cached body, got %s", out2[0].Body)
	}
	if store.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", store.calls)
	}

	// Invalidate -> next call hits the store again
	if err := cs.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	out3, _ := cs.FetchAll(context.Background())
	if out3[0].Body != "Changed" || store.calls != 2 {
		t.Fatalf("expected fresh fetch after invalidate, got %+v (calls=%d)", out3, store.calls)
	}
}

func TestCachedStore_ErrorsAreNotCached(t *testing.T) {
	store := &fakeStore{err: domain.ErrStoreUnavailable}
	cache := &fakeCache{}
	cs := app.NewCachedStore(store, cache, time.Minute)

	if _, err := cs.FetchAll(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(cache.store) != 0 {
		t.Fatalf("failure must not populate the cache")
	}
}

func ptr[T any](v T) *T { return &v }
