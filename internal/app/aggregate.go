package app

import "talent_testimonials/internal/domain"

// Summarize computes the page statistics over the full, unfiltered snapshot.
// Unrated reviews count toward Count but never toward the rating figures.
func Summarize(reviews []domain.Review) domain.Summary {
	s := domain.Summary{
		Count:         len(reviews),
		ServiceCounts: make(map[domain.ServiceType]int, len(domain.ServiceTypes)+1),
	}
	sum := 0
	for _, r := range reviews {
		if r.Featured {
			s.FeaturedCount++
		}
		s.ServiceCounts[serviceOf(r)]++

		if !r.Rated() {
			continue
		}
		n := *r.Rating
		sum += n
		s.RatedCount++
		s.Histogram[n-domain.MinRating]++
		if n == domain.MaxRating {
			s.FiveStarCount++
		}
	}
	if s.RatedCount > 0 {
		avg := roundTenths(sum, s.RatedCount)
		s.AverageRating = &avg
	}
	return s
}

// roundTenths returns sum/n rounded half-up to one decimal, in integer math
// so values like 4.35 don't drift to 4.3.
func roundTenths(sum, n int) float64 {
	tenths := (sum*20 + n) / (2 * n)
	return float64(tenths) / 10
}

func serviceOf(r domain.Review) domain.ServiceType {
	if r.ServiceType == "" {
		return domain.ServiceUnspecified
	}
	return r.ServiceType
}
