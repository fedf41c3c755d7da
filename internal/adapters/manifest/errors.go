package manifest

import "errors"

var (
	// ErrRetrieval reports a manifest that cannot be read or parsed.
	ErrRetrieval = errors.New("manifest retrieval failed")
	// ErrOutsideRoot reports a name that resolves outside the data root.
	ErrOutsideRoot = errors.New("path outside data root")
)
