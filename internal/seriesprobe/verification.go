package seriesprobe

import (
	"errors"
	"fmt"
	"math"
)

// ErrVerification is returned by Run when served steps break ownership.
var ErrVerification = errors.New("probe verification failed")

// verifyResults checks the served steps against the aggregate timeline:
//   - every step is served by exactly one time inside the aggregate range
//   - each input serves one contiguous run of ascending steps
//   - an ordinal series serves step i from input i
func verifyResults(view seriesView, ordinal bool, results []StepResult) []string {
	var violations []string
	seen := make(map[int]bool)
	prev := -1

	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if len(r.Times) != 1 {
			violations = append(violations, fmt.Sprintf("step %g: served %d times", r.Step, len(r.Times)))
			continue
		}
		if rng := view.Timeline.Range; rng != nil && !rng.Contains(r.Times[0]) {
			violations = append(violations, fmt.Sprintf("step %g: served time %g outside [%g, %g]",
				r.Step, r.Times[0], rng.Start, rng.End))
		}
		if ordinal && float64(r.Index) != math.Floor(r.Step) {
			violations = append(violations, fmt.Sprintf("ordinal step %g: served by input %d", r.Step, r.Index))
		}
		if r.Index != prev {
			if seen[r.Index] {
				violations = append(violations, fmt.Sprintf("step %g: input %d owns a split run", r.Step, r.Index))
			}
			seen[r.Index] = true
			prev = r.Index
		}
	}
	return violations
}
