// Package timeline merges per-input time descriptions into one global
// timeline and resolves requested times to the input that owns them.
//
// An input owns every time value from its own start up to, but excluding,
// the start of the next input in time order. The earliest input also owns
// everything before its start.
package timeline

import (
	"context"
	"fmt"

	"github.com/okian/fileseries/internal/domain/timeinfo"
	"github.com/okian/fileseries/pkg/logger"
	"github.com/okian/fileseries/pkg/metrics"
)

const defaultSeed = 1

// entry pairs an input index with the time info registered for it.
// info.Range is always set.
type entry struct {
	index int
	info  timeinfo.Info
}

// Registry stores per-input time info, indexed by input index and by start time.
// A Registry is not safe for concurrent use; its owner serializes access.
type Registry struct {
	byIndex map[int]*entry
	byStart *startIndex
	policy  DuplicateStartPolicy
	seed    int64
	logger  logger.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byIndex: make(map[int]*entry),
		policy:  DuplicateStartReject,
		seed:    defaultSeed,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.byStart = newStartIndex(r.seed)
	return r
}

// Reset clears both indexes.
func (r *Registry) Reset() {
	r.byIndex = make(map[int]*entry)
	r.byStart.Reset()
	metrics.UpdateRegisteredInputs(0)
}

// Policy returns the duplicate start policy in effect.
func (r *Registry) Policy() DuplicateStartPolicy { return r.policy }

// AddTimeRange registers the time info reported by input index.
//
// Steps without a range derive the range from the first and last step.
// An input reporting neither is skipped with ErrMissingTimeInfo.
func (r *Registry) AddTimeRange(ctx context.Context, index int, reported timeinfo.Info) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if err := reported.Validate(); err != nil {
		metrics.RecordInvalidTimeInfo()
		r.logger.Warn(ctx, "input has invalid time information", logger.Int("index", index), logger.Error(err))
		return fmt.Errorf("%w %d: %w", ErrInvalidTimeInfo, index, err)
	}

	var info timeinfo.Info
	switch {
	case reported.HasSteps():
		info.Steps = append(make([]float64, 0, len(reported.Steps)), reported.Steps...)
		if reported.Range != nil {
			rng := *reported.Range
			info.Range = &rng
		} else {
			info.Range = timeinfo.NewRange(info.Steps[0], info.Steps[len(info.Steps)-1])
		}
	case reported.HasRange():
		rng := *reported.Range
		info.Range = &rng
	default:
		metrics.RecordMissingTimeInfo()
		r.logger.Warn(ctx, "input has no time information", logger.Int("index", index))
		return fmt.Errorf("%w %d", ErrMissingTimeInfo, index)
	}

	start := info.Range.Start
	if owner, ok := r.byStart.Get(start); ok && owner != index {
		metrics.RecordDuplicateStart()
		if r.policy == DuplicateStartReject {
			r.logger.Warn(ctx, "input start collides with another input",
				logger.Int("index", index), logger.Int("owner", owner), logger.Float64("start", start))
			return fmt.Errorf("%w: input %d starts at %g like input %d", ErrDuplicateStart, index, start, owner)
		}
		r.logger.Warn(ctx, "input start replaces another input in time order",
			logger.Int("index", index), logger.Int("replaced", owner), logger.Float64("start", start))
	}

	// Re-registration of the same index drops its previous start first.
	if prev, ok := r.byIndex[index]; ok {
		if owner, ok := r.byStart.Get(prev.info.Range.Start); ok && owner == index {
			r.byStart.Delete(prev.info.Range.Start)
		}
	}

	r.byIndex[index] = &entry{index: index, info: info}
	r.byStart.Put(start, index)

	metrics.RecordTimeRangeRegistered()
	metrics.UpdateRegisteredInputs(r.byStart.Len())
	r.logger.Debug(ctx, "registered input time range",
		logger.Int("index", index),
		logger.Float64("start", info.Range.Start),
		logger.Float64("end", info.Range.End),
		logger.Int("steps", len(info.Steps)),
	)
	return nil
}

// InputTimeInfo returns a copy of the info registered for index.
func (r *Registry) InputTimeInfo(index int) (timeinfo.Info, bool) {
	e, ok := r.byIndex[index]
	if !ok {
		return timeinfo.Info{}, false
	}
	return e.info.Clone(), true
}

// Len returns the number of inputs in the ordered view.
func (r *Registry) Len() int { return r.byStart.Len() }

// Indices returns input indices in ascending start order.
func (r *Registry) Indices() []int {
	out := make([]int, 0, r.byStart.Len())
	r.byStart.Ascend(func(_ float64, index int) bool {
		out = append(out, index)
		return true
	})
	return out
}

// ordered returns entries in ascending start order.
func (r *Registry) ordered() []*entry {
	out := make([]*entry, 0, r.byStart.Len())
	r.byStart.Ascend(func(_ float64, index int) bool {
		out = append(out, r.byIndex[index])
		return true
	})
	return out
}
