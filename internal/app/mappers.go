package app

import (
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

/********** alias registry (single source of truth) **********/

// WordPress REST testimonial posts; custom fields arrive under acf.* or meta.*
// depending on which plugin registered them.
var testimonialAliases = map[string][]string{
	"id":             {"id", "ID", "post_id"},
	"status":         {"status", "post_status"},
	"rating":         {"acf.rating", "acf.star_rating", "meta.rating", "meta._testimonial_rating", "rating"},
	"service":        {"acf.service_type", "acf.service", "meta.service_type", "service_type"},
	"featured":       {"acf.featured", "meta.featured", "meta._testimonial_featured", "featured", "sticky"},
	"published":      {"date_gmt", "post_date_gmt", "date", "published_at"},
	"body":           {"content.rendered", "acf.testimonial", "content", "body", "excerpt.rendered"},
	"author_name":    {"acf.client_name", "meta.client_name", "author_name", "title.rendered", "title"},
	"author_title":   {"acf.client_title", "acf.client_position", "meta.client_title", "author_title"},
	"author_company": {"acf.client_company", "meta.client_company", "author_company", "company"},
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	validate  = validator.New()
	stripHTML = bluemonday.StrictPolicy()
)

// ratingInput is validated at ingestion; a failing rating is dropped, not the review.
type ratingInput struct {
	Rating *int `validate:"omitempty,gte=1,lte=5"`
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if s, ok := lookupAny(m, path).(string); ok {
		return s
	}
	return ""
}

// firstNonEmptyAlias: first non-blank string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range testimonialAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getBoolFlexible understands ACF true/false, checkbox arrays and "1"/"yes".
func getBoolFlexible(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			if v {
				return true
			}
		case float64:
			if v != 0 {
				return true
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "on", "featured":
				return true
			}
		case []any:
			if len(v) > 0 {
				return true
			}
		}
	}
	return false
}

func parsePublished(s string) time.Time {
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// plainText strips markup from rendered post content and collapses whitespace.
func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(stripHTML.Sanitize(s))), " ")
}

/********** testimonial mapper **********/

// mapTestimonials turns CMS payloads into reviews. Drafts and payloads without
// an id are skipped; invalid ratings keep the review but leave it unrated.
func mapTestimonials(in []map[string]any) (out []domain.Review, skipped, invalid int) {
	out = make([]domain.Review, 0, len(in))
	for _, p := range in {
		if st := firstNonEmptyAlias(p, "status"); st != "" && st != "publish" {
			skipped++
			continue
		}
		idf := getFloatFlexible(p, testimonialAliases["id"]...)
		if idf == nil || *idf <= 0 {
			skipped++
			continue
		}

		rv := domain.Review{
			ID:          int64(*idf),
			Featured:    getBoolFlexible(p, testimonialAliases["featured"]...),
			PublishedAt: parsePublished(firstNonEmptyAlias(p, "published")),
			Body:        plainText(firstNonEmptyAlias(p, "body")),
			Author: domain.Author{
				Name:    plainText(firstNonEmptyAlias(p, "author_name")),
				Title:   plainText(firstNonEmptyAlias(p, "author_title")),
				Company: plainText(firstNonEmptyAlias(p, "author_company")),
			},
		}

		// Service → unknown categories land in "unspecified".
		st, ok := domain.ParseServiceType(firstNonEmptyAlias(p, "service"))
		if !ok {
			log.Debug().Int64("review_id", rv.ID).Str("service", firstNonEmptyAlias(p, "service")).
				Msg("unknown service type; using unspecified")
		}
		rv.ServiceType = st

		// Rating
		if f := getFloatFlexible(p, testimonialAliases["rating"]...); f != nil {
			if *f != math.Trunc(*f) {
				invalid++
				observability.ObserveInvalidRating("ingest")
				log.Warn().Err(domain.ErrInvalidRating).Int64("review_id", rv.ID).Float64("rating", *f).
					Msg("fractional rating; treating review as unrated")
			} else {
				n := int(*f)
				if err := validate.Struct(ratingInput{Rating: &n}); err != nil {
					invalid++
					observability.ObserveInvalidRating("ingest")
					log.Warn().Err(domain.ErrInvalidRating).Int64("review_id", rv.ID).Int("rating", n).
						Msg("rating out of range; treating review as unrated")
				} else {
					rv.Rating = &n
				}
			}
		}

		out = append(out, rv)
	}
	return out, skipped, invalid
}
