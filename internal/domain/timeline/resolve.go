package timeline

import (
	"math"
	"sort"
)

// IndexForTime returns the input that owns t: the one with the greatest
// start <= t. Times before every start resolve to the earliest input.
// An empty registry resolves to 0.
func (r *Registry) IndexForTime(t float64) int {
	if r.byStart.Len() == 0 {
		return 0
	}
	if n := r.byStart.Floor(t); n != nil {
		return n.index
	}
	return r.byStart.Min().index
}

// ChooseInputs resolves each requested time and returns the distinct owners
// in ascending order. An empty request targets input 0.
func (r *Registry) ChooseInputs(times []float64) []int {
	if len(times) == 0 {
		return []int{0}
	}
	seen := make(map[int]struct{}, len(times))
	out := make([]int, 0, 1)
	for _, t := range times {
		idx := r.IndexForTime(t)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// TimesForInput returns the requested times owned by index, clamped into
// the input's own range. Unknown inputs own nothing.
func (r *Registry) TimesForInput(index int, times []float64) []float64 {
	e, ok := r.byIndex[index]
	if !ok {
		return nil
	}
	supported := *e.info.Range

	lo, hi := r.window(supported.Start)
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if t >= lo && t < hi {
			out = append(out, supported.Clamp(t))
		}
	}
	return out
}

// window returns the half-open ownership window of the input starting at start.
func (r *Registry) window(start float64) (float64, float64) {
	lo, hi := start, math.Inf(1)
	if next := r.byStart.Higher(start); next != nil {
		hi = next.start
	}
	if first := r.byStart.Min(); first != nil && first.start == start {
		lo = math.Inf(-1)
	}
	return lo, hi
}
