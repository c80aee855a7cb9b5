package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"talent_testimonials/internal/domain"
)

// RawFilter carries the query parameters exactly as the page sent them.
type RawFilter struct {
	Rating   string
	Service  string
	Page     string
	PageSize string
}

type PageDefaults struct {
	PageSize    int
	MaxPageSize int
}

// ParseFilter normalises a filter request. It never rejects: bad values are
// clamped or reset to "all", and the returned error (wrapping
// domain.ErrInvalidFilter) only describes what was changed.
func ParseFilter(raw RawFilter, d PageDefaults) (domain.FilterRequest, error) {
	if d.PageSize <= 0 {
		d.PageSize = 9
	}
	if d.MaxPageSize < d.PageSize {
		d.MaxPageSize = d.PageSize
	}

	var errs []error
	req := domain.FilterRequest{
		Rating:   domain.RatingAll,
		Service:  domain.ServiceAll,
		Page:     1,
		PageSize: d.PageSize,
	}

	if rf, ok := parseRatingFilter(raw.Rating); ok {
		req.Rating = rf
	} else {
		errs = append(errs, fmt.Errorf("%w: rating %q", domain.ErrInvalidFilter, raw.Rating))
	}

	if s := strings.TrimSpace(raw.Service); s != "" && !strings.EqualFold(s, string(domain.ServiceAll)) {
		if st, ok := domain.ParseServiceType(s); ok {
			req.Service = domain.ServiceFilter(st)
		} else {
			errs = append(errs, fmt.Errorf("%w: service %q", domain.ErrInvalidFilter, raw.Service))
		}
	}

	if s := strings.TrimSpace(raw.Page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%w: page %q", domain.ErrInvalidFilter, raw.Page))
		} else {
			req.Page = n
		}
	}

	if s := strings.TrimSpace(raw.PageSize); s != "" {
		n, err := strconv.Atoi(s)
		switch {
		case err != nil || n <= 0:
			errs = append(errs, fmt.Errorf("%w: page_size %q", domain.ErrInvalidFilter, raw.PageSize))
		case n > d.MaxPageSize:
			errs = append(errs, fmt.Errorf("%w: page_size %d above %d", domain.ErrInvalidFilter, n, d.MaxPageSize))
			req.PageSize = d.MaxPageSize
		default:
			req.PageSize = lo.Clamp(n, 1, d.MaxPageSize)
		}
	}

	return req, errors.Join(errs...)
}

// accepts "", "all", "4", "4+", "4★", "5"
func parseRatingFilter(s string) (domain.RatingFilter, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "all" {
		return domain.RatingAll, true
	}
	v = strings.TrimRight(v, "+★* ")
	switch v {
	case "4":
		return domain.RatingFourPlus, true
	case "5":
		return domain.RatingFive, true
	}
	return domain.RatingAll, false
}
