package landmark

import "errors"

var (
	// ErrTooShort is returned when a set lacks a required index.
	ErrTooShort = errors.New("landmark set too short")

	// ErrNonFinite is returned when a required landmark has a NaN or Inf coordinate.
	ErrNonFinite = errors.New("landmark coordinate not finite")
)
