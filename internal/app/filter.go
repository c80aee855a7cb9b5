package app

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"talent_testimonials/internal/domain"
)

// Filter applies the rating and service predicates (AND). The input is not modified.
func Filter(reviews []domain.Review, req domain.FilterRequest) []domain.Review {
	return lo.Filter(reviews, func(r domain.Review, _ int) bool {
		return matchesRating(r, req.Rating) && matchesService(r, req.Service)
	})
}

// "4+" is inclusive of five stars; unrated reviews only show under "all".
func matchesRating(r domain.Review, f domain.RatingFilter) bool {
	if f == domain.RatingAll {
		return true
	}
	return r.Rated() && *r.Rating >= int(f)
}

func matchesService(r domain.Review, f domain.ServiceFilter) bool {
	if f == "" || f == domain.ServiceAll {
		return true
	}
	return string(serviceOf(r)) == string(f)
}

// Rank returns a sorted copy: rated before unrated, rating desc, then newest first.
// Equal keys keep their input order.
func Rank(reviews []domain.Review) []domain.Review {
	out := slices.Clone(reviews)
	slices.SortStableFunc(out, compareForDisplay)
	return out
}

func compareForDisplay(a, b domain.Review) int {
	ar, br := a.Rated(), b.Rated()
	switch {
	case ar && !br:
		return -1
	case !ar && br:
		return 1
	case ar && br && *a.Rating != *b.Rating:
		return cmp.Compare(*b.Rating, *a.Rating)
	}
	return b.PublishedAt.Compare(a.PublishedAt)
}

// SelectFeatured returns up to limit featured reviews, newest first. No padding.
func SelectFeatured(reviews []domain.Review, limit int) []domain.Review {
	featured := lo.Filter(reviews, func(r domain.Review, _ int) bool { return r.Featured })
	slices.SortStableFunc(featured, func(a, b domain.Review) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if limit < 0 {
		limit = 0
	}
	if len(featured) > limit {
		featured = featured[:limit]
	}
	return featured
}

// Paginate slices one page out of an already filtered and ranked set.
// There is always at least one page; a page past the end is empty.
func Paginate(filtered []domain.Review, page, pageSize int) domain.Page {
	page = max(page, 1)
	pageSize = max(pageSize, 1)

	total := len(filtered)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	totalPages = max(totalPages, 1)

	out := domain.Page{Items: []domain.Review{}, Page: page, TotalPages: totalPages, Total: total}
	// bail out before (page-1)*pageSize can overflow
	if page > totalPages {
		return out
	}
	start := (page - 1) * pageSize
	if start >= total {
		return out
	}
	end := min(start+pageSize, total)
	out.Items = slices.Clone(filtered[start:end])
	return out
}
