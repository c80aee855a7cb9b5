package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("review store unavailable")
	ErrInvalidRating    = errors.New("invalid rating value")
	ErrInvalidFilter    = errors.New("invalid filter request")
)
