package timeline

import (
	"fmt"
	"strings"

	"github.com/okian/fileseries/pkg/logger"
)

// DuplicateStartPolicy decides what happens when two inputs report the same start time.
type DuplicateStartPolicy string

const (
	// DuplicateStartReject refuses the later registration.
	DuplicateStartReject DuplicateStartPolicy = "reject"
	// DuplicateStartReplace lets the later registration take over the start
	// in the ordered view. The earlier input stays addressable by index only.
	DuplicateStartReplace DuplicateStartPolicy = "replace"
)

// ParseDuplicateStartPolicy parses a policy name (case-insensitive).
func ParseDuplicateStartPolicy(s string) (DuplicateStartPolicy, error) {
	switch p := DuplicateStartPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateStartReject, nil
	case DuplicateStartReject, DuplicateStartReplace:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithDuplicateStartPolicy sets the collision policy. Unknown values are ignored.
func WithDuplicateStartPolicy(p DuplicateStartPolicy) Option {
	return func(r *Registry) {
		if p == DuplicateStartReject || p == DuplicateStartReplace {
			r.policy = p
		}
	}
}

// WithLogger sets the logger used for registration warnings.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSeed fixes the treap priority seed.
func WithSeed(seed int64) Option {
	return func(r *Registry) {
		r.seed = seed
	}
}
