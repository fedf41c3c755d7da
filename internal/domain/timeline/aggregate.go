package timeline

import (
	"math"

	"github.com/okian/fileseries/internal/domain/timeinfo"
)

// AggregateTimeInfo merges every registered input into the global timeline.
//
// The range spans the first input's start to the last input's end in start
// order. Each input contributes only the steps strictly below the next
// input's start, so touching or overlapping inputs never duplicate a value.
// When the global start is not below the global end the result is empty:
// a single time point is reported as a dataset without time.
func (r *Registry) AggregateTimeInfo() (timeinfo.Info, error) {
	entries := r.ordered()
	if len(entries) == 0 {
		return timeinfo.Info{}, ErrNoTimeInfo
	}

	start := entries[0].info.Range.Start
	end := entries[len(entries)-1].info.Range.End
	if start >= end {
		return timeinfo.Info{}, nil
	}

	var steps []float64
	for i, e := range entries {
		limit := math.Inf(1)
		if i+1 < len(entries) {
			limit = entries[i+1].info.Range.Start
		}
		for _, s := range e.info.Steps {
			if s >= limit {
				break
			}
			steps = append(steps, s)
		}
	}

	return timeinfo.Info{Range: timeinfo.NewRange(start, end), Steps: steps}, nil
}
