package timeline

import "errors"

// Sentinel kinds for registry and aggregation errors.
var (
	ErrMissingTimeInfo = errors.New("no time information for input")
	ErrInvalidTimeInfo = errors.New("invalid time information for input")
	ErrDuplicateStart  = errors.New("duplicate input start time")
	ErrInvalidIndex    = errors.New("invalid input index")
	ErrNoTimeInfo      = errors.New("no inputs with time information")
	ErrUnknownPolicy   = errors.New("unknown duplicate start policy")
)
