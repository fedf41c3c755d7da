package series

import (
	"context"
	"fmt"

	"github.com/okian/fileseries/internal/domain/timeinfo"
)

// State is the controller's position in its request cycle.
type State int

const (
	// StateIdle means no timeline has been published yet.
	StateIdle State = iota
	// StateDescribing means inputs are being read to build the timeline.
	StateDescribing
	// StateReady means the timeline is published and an input may be selected.
	StateReady
	// StateFetching means the selected input is producing data.
	StateFetching
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDescribing:
		return "describing"
	case StateReady:
		return "ready"
	case StateFetching:
		return "fetching"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Phase names one kind of request handled by Process.
type Phase int

const (
	// PhaseDescribe builds and publishes the timeline.
	PhaseDescribe Phase = iota
	// PhaseSelect resolves times to their owning input.
	PhaseSelect
	// PhaseFetch selects the owning input and produces its data.
	PhaseFetch
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDescribe:
		return "describe"
	case PhaseSelect:
		return "select"
	case PhaseFetch:
		return "fetch"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Request is one phased request. Times is ignored by PhaseDescribe.
type Request struct {
	Phase Phase
	Times []float64
}

// Response carries what the requested phase produced.
//
//	PhaseDescribe: Timeline
//	PhaseSelect:   Index, Times (the input's local window)
//	PhaseFetch:    Index, Times, Data
type Response struct {
	Phase    Phase
	Timeline timeinfo.Info
	Index    int
	Times    []float64
	Data     Data
}

// FetchResult is the outcome of a delegated data production.
type FetchResult struct {
	Index int       `json:"index"`
	Times []float64 `json:"times"`
	Data  Data      `json:"data,omitempty"`
}

// Process dispatches req to the matching phase.
func (c *Controller) Process(ctx context.Context, req Request) (Response, error) {
	resp := Response{Phase: req.Phase}
	switch req.Phase {
	case PhaseDescribe:
		info, err := c.Describe(ctx)
		if err != nil {
			return resp, err
		}
		resp.Timeline = info
	case PhaseSelect:
		index, err := c.Select(ctx, req.Times)
		if err != nil {
			return resp, err
		}
		resp.Index = index
		resp.Times = c.LocalWindow(index, req.Times)
	case PhaseFetch:
		res, err := c.Fetch(ctx, req.Times)
		if err != nil {
			return resp, err
		}
		resp.Index, resp.Times, resp.Data = res.Index, res.Times, res.Data
	default:
		return resp, fmt.Errorf("%w: %s", ErrUnknownPhase, req.Phase)
	}
	return resp, nil
}
