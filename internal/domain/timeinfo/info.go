// Package timeinfo holds the time description an input reports: a closed
// interval and an optional ascending list of discrete time values.
package timeinfo

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel kinds for malformed time information.
var (
	ErrInvalidRange = errors.New("invalid time range")
	ErrInvalidSteps = errors.New("invalid time steps")
)

// Range is a closed interval [Start, End].
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Contains reports whether t lies inside the closed interval.
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t <= r.End
}

// Clamp limits t to the interval.
func (r Range) Clamp(t float64) float64 {
	return math.Max(r.Start, math.Min(r.End, t))
}

// Info is the time description of one input or of an aggregate.
// A nil Range means no range was reported; empty Steps means no discrete steps.
type Info struct {
	Range *Range    `json:"range,omitempty" yaml:"range,omitempty"`
	Steps []float64 `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// HasRange reports whether a range is present.
func (i Info) HasRange() bool { return i.Range != nil }

// HasSteps reports whether discrete steps are present.
func (i Info) HasSteps() bool { return len(i.Steps) > 0 }

// Empty reports whether neither a range nor steps are present.
func (i Info) Empty() bool { return !i.HasRange() && !i.HasSteps() }

// Temporal reports whether the info describes time that actually advances.
func (i Info) Temporal() bool { return i.Range != nil && i.Range.Start < i.Range.End }

// Clone returns a deep copy.
func (i Info) Clone() Info {
	var out Info
	if i.Range != nil {
		r := *i.Range
		out.Range = &r
	}
	if i.Steps != nil {
		out.Steps = append(make([]float64, 0, len(i.Steps)), i.Steps...)
	}
	return out
}

// Validate rejects NaN values and inverted ranges.
func (i Info) Validate() error {
	if i.Range != nil {
		if math.IsNaN(i.Range.Start) || math.IsNaN(i.Range.End) {
			return fmt.Errorf("%w: NaN bound", ErrInvalidRange)
		}
		if i.Range.Start > i.Range.End {
			return fmt.Errorf("%w: start %g after end %g", ErrInvalidRange, i.Range.Start, i.Range.End)
		}
	}
	for n, s := range i.Steps {
		if math.IsNaN(s) {
			return fmt.Errorf("%w: NaN at position %d", ErrInvalidSteps, n)
		}
	}
	return nil
}

// NewRange is a convenience constructor returning a pointer.
func NewRange(start, end float64) *Range {
	return &Range{Start: start, End: end}
}
