package domain

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type ServiceType string

const (
	ServiceUnspecified         ServiceType = "unspecified"
	ServiceExecutiveSearch     ServiceType = "executive-search"
	ServicePermanentPlacement  ServiceType = "permanent-placement"
	ServiceTemporaryStaffing   ServiceType = "temporary-staffing"
	ServiceContractRecruitment ServiceType = "contract-recruitment"
)

// ServiceTypes lists the known categories in filter-button order.
var ServiceTypes = []ServiceType{
	ServiceExecutiveSearch,
	ServicePermanentPlacement,
	ServiceTemporaryStaffing,
	ServiceContractRecruitment,
}

// ParseServiceType maps a CMS/query value onto a known category.
// ok is false for values outside the enumerated set; those map to ServiceUnspecified.
func ParseServiceType(s string) (ServiceType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	v = strings.ReplaceAll(v, " ", "-")
	if v == "" || v == string(ServiceUnspecified) {
		return ServiceUnspecified, true
	}
	for _, st := range ServiceTypes {
		if v == string(st) {
			return st, true
		}
	}
	return ServiceUnspecified, false
}

type Author struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
}

type Review struct {
	ID          int64       `json:"id"`
	Rating      *int        `json:"rating,omitempty"` // nil = unrated
	ServiceType ServiceType `json:"service_type"`
	Featured    bool        `json:"featured"`
	PublishedAt time.Time   `json:"published_at"`
	Body        string      `json:"body"`
	Author      Author      `json:"author"`
}

// Rated reports whether the review carries a usable star rating.
func (r Review) Rated() bool {
	return r.Rating != nil && ValidRating(*r.Rating)
}

func ValidRating(n int) bool { return n >= MinRating && n <= MaxRating }
