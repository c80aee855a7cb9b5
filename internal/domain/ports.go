package domain

import "context"

// ReviewStore supplies the current snapshot of published reviews.
// Implementations wrap any backing failure in ErrStoreUnavailable.
type ReviewStore interface {
	FetchAll(ctx context.Context) ([]Review, error)
}

type ReviewWriter interface {
	UpsertReviews(ctx context.Context, rs []Review) error
}

type CMSClient interface {
	ListTestimonials(ctx context.Context) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type RatingFilter int

const (
	RatingAll      RatingFilter = 0
	RatingFourPlus RatingFilter = 4
	RatingFive     RatingFilter = 5
)

// ServiceFilter is either ServiceAll or one of the ServiceType values.
type ServiceFilter string

const ServiceAll ServiceFilter = "all"

type FilterRequest struct {
	Rating   RatingFilter  `json:"rating"`
	Service  ServiceFilter `json:"service"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type Summary struct {
	Count         int                 `json:"count"`
	AverageRating *float64            `json:"average_rating"` // nil when nothing is rated
	FiveStarCount int                 `json:"five_star_count"`
	FeaturedCount int                 `json:"featured_count"`
	RatedCount    int                 `json:"rated_count"`
	Histogram     [MaxRating]int      `json:"histogram"` // index 0 = one star
	ServiceCounts map[ServiceType]int `json:"service_counts"`
}

type Page struct {
	Items      []Review `json:"items"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Total      int      `json:"total"`
}

type TestimonialsView struct {
	Summary  Summary       `json:"summary"`
	Featured []Review      `json:"featured"`
	Filter   FilterRequest `json:"filter"`
	Page
}
