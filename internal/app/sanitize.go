package app

import (
	"github.com/rs/zerolog/log"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

// SanitizeRatings returns a copy of rs in which out-of-range ratings are
// downgraded to unrated, so they can't skew statistics or match star filters.
// stage labels where the bad rows were seen (ingest, snapshot).
func SanitizeRatings(stage string, rs []domain.Review) []domain.Review {
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	for i := range out {
		if out[i].Rating == nil || domain.ValidRating(*out[i].Rating) {
			continue
		}
		log.Warn().
			Err(domain.ErrInvalidRating).
			Str("stage", stage).
			Int64("review_id", out[i].ID).
			Int("rating", *out[i].Rating).
			Msg("rating out of range; treating review as unrated")
		observability.ObserveInvalidRating(stage)
		out[i].Rating = nil
	}
	return out
}
