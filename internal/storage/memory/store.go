// Package memory is a ReviewStore over a fixed in-process snapshot, loaded
// from a JSON fixture in dev and built directly in tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	reviews []domain.Review
	err     error
}

func New(rs ...domain.Review) *Store { return &Store{reviews: slices.Clone(rs)} }

// LoadFile reads a JSON array of reviews.
func LoadFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var rs []domain.Review
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	// hand-written fixtures use labels like "Executive Search"; unknown ones become unspecified
	for i := range rs {
		rs[i].ServiceType, _ = domain.ParseServiceType(string(rs[i].ServiceType))
	}
	return New(rs...), nil
}

func (s *Store) FetchAll(ctx context.Context) ([]domain.Review, error) {
	if err := ctx.Err(); err != nil {
		observability.ObserveStoreFetch("memory", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	observability.ObserveStoreFetch("memory", s.err)
	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, s.err)
	}
	return slices.Clone(s.reviews), nil
}

// Replace swaps the snapshot; requests already holding the old one keep it.
func (s *Store) Replace(rs []domain.Review) {
	s.mu.Lock()
	s.reviews = slices.Clone(rs)
	s.mu.Unlock()
}

// UpsertReviews lets the in-memory store stand in for MySQL during ingestion.
func (s *Store) UpsertReviews(_ context.Context, rs []domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make(map[int64]int, len(s.reviews))
	for i, r := range s.reviews {
		idx[r.ID] = i
	}
	for _, r := range rs {
		if i, ok := idx[r.ID]; ok {
			s.reviews[i] = r
			continue
		}
		idx[r.ID] = len(s.reviews)
		s.reviews = append(s.reviews, r)
	}
	return nil
}

// Fail makes every FetchAll return err (wrapped in ErrStoreUnavailable); nil clears it.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
