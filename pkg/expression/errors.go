package expression

import "errors"

var (
	// ErrInvalidInput is returned when a landmark set lacks the indices the
	// classifier reads. The frame should be skipped and the prior state kept.
	ErrInvalidInput = errors.New("invalid landmark input")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid classifier config")
)
