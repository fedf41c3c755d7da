package series

import "errors"

// Sentinel kinds surfaced by the controller.
var (
	ErrNoInputs                       = errors.New("inputs are not configured")
	ErrUnsupportedMultiInputSelection = errors.New("selection spans more than one input")
	ErrProbeFailed                    = errors.New("reader failed to report time information")
	ErrProduceFailed                  = errors.New("reader failed to produce data")
	ErrManifest                       = errors.New("manifest could not be read")
	ErrNoReader                       = errors.New("no reader is defined")
	ErrUnknownPhase                   = errors.New("unknown request phase")
	ErrNotDescribed                   = errors.New("series has not been described")
)
