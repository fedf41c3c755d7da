// Package series presents an ordered list of sources as one time-varying
// dataset. A Controller probes each source's time information through a
// Reader, publishes the merged timeline, and routes every data request to
// the single source that owns the requested time.
package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/fileseries/internal/domain/timeinfo"
	"github.com/okian/fileseries/internal/domain/timeline"
	"github.com/okian/fileseries/pkg/logger"
	"github.com/okian/fileseries/pkg/metrics"
)

const noIndex = -1

// Controller drives one file series. It is not safe for concurrent use.
type Controller struct {
	reader       Reader
	files        Enumerator
	manifest     ManifestProvider
	manifestPath string

	ignoreReaderTime bool
	registry         *timeline.Registry
	registryOpts     []timeline.Option

	state      State
	described  bool
	selected   int
	lastProbed int

	// global is the published aggregate, local the last probe result and
	// visible the slot external consumers observe.
	global  timeinfo.Info
	local   timeinfo.Info
	visible timeinfo.Info

	logger logger.Logger
}

// New constructs a controller over files. A nil files starts an empty FileList.
func New(reader Reader, files Enumerator, opts ...Option) *Controller {
	if files == nil {
		files = NewFileList()
	}
	c := &Controller{
		reader:     reader,
		files:      files,
		state:      StateIdle,
		selected:   noIndex,
		lastProbed: noIndex,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = timeline.NewRegistry(append([]timeline.Option{timeline.WithLogger(c.logger)}, c.registryOpts...)...)
	return c
}

// Describe probes every input and publishes the aggregate timeline.
func (c *Controller) Describe(ctx context.Context) (timeinfo.Info, error) {
	start := time.Now()
	info, err := c.describe(ctx)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		c.state = StateIdle
		metrics.RecordDescribe("error", latency)
		metrics.RecordErrorByComponent("series", "describe_error")
		c.logger.Error(ctx, "describe failed", logger.Error(err))
		return timeinfo.Info{}, err
	}
	c.state = StateReady
	metrics.RecordDescribe("ok", latency)
	return info, nil
}

func (c *Controller) describe(ctx context.Context) (timeinfo.Info, error) {
	if c.reader == nil {
		return timeinfo.Info{}, ErrNoReader
	}
	c.state = StateDescribing
	c.described = false
	c.selected = noIndex

	if err := c.refreshManifest(ctx); err != nil {
		return timeinfo.Info{}, err
	}

	n := c.files.Len()
	if n < 1 {
		return timeinfo.Info{}, fmt.Errorf("%w: expecting at least 1 input", ErrNoInputs)
	}

	c.registry.Reset()
	c.global = timeinfo.Info{}
	c.visible = timeinfo.Info{}

	// Input 0 decides whether the series has time at all.
	if err := c.probe(ctx, 0); err != nil {
		return timeinfo.Info{}, err
	}

	if c.ignoreReaderTime || c.local.Empty() {
		metrics.RecordSynthesizedTimeline()
		c.logger.Debug(ctx, "synthesizing one time step per input",
			logger.Int("inputs", n), logger.Bool("ignoreReaderTime", c.ignoreReaderTime))
		for i := 0; i < n; i++ {
			if err := c.register(ctx, i, timeinfo.Info{Steps: []float64{float64(i)}}); err != nil {
				return timeinfo.Info{}, err
			}
		}
	} else {
		if err := c.register(ctx, 0, c.local); err != nil {
			return timeinfo.Info{}, err
		}
		for i := 1; i < n; i++ {
			if err := c.probe(ctx, i); err != nil {
				return timeinfo.Info{}, err
			}
			if err := c.register(ctx, i, c.local); err != nil {
				return timeinfo.Info{}, err
			}
		}
	}

	agg, err := c.registry.AggregateTimeInfo()
	if err != nil {
		if errors.Is(err, timeline.ErrNoTimeInfo) {
			return timeinfo.Info{}, fmt.Errorf("%w: %w", ErrNoInputs, err)
		}
		return timeinfo.Info{}, err
	}

	c.global = agg
	c.visible = agg.Clone()
	c.described = true
	metrics.UpdateAggregateSteps(len(agg.Steps))

	c.logger.Info(ctx, "published aggregate timeline",
		logger.Int("inputs", n),
		logger.Int("registered", c.registry.Len()),
		logger.Int("steps", len(agg.Steps)),
		logger.Bool("temporal", agg.Temporal()),
	)
	return agg.Clone(), nil
}

// register adds one input's info. Inputs the registry refuses are left out
// of the aggregate.
func (c *Controller) register(ctx context.Context, index int, info timeinfo.Info) error {
	err := c.registry.AddTimeRange(ctx, index, info)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, timeline.ErrMissingTimeInfo),
		errors.Is(err, timeline.ErrInvalidTimeInfo),
		errors.Is(err, timeline.ErrDuplicateStart):
		c.logger.Debug(ctx, "input excluded from aggregate", logger.Int("index", index), logger.Error(err))
		return nil
	default:
		return err
	}
}

// probe asks the reader for the time info of input index and stores it in
// the local slot.
func (c *Controller) probe(ctx context.Context, index int) error {
	source, ok := c.files.Get(index)
	if !ok {
		return fmt.Errorf("%w: input %d", ErrNoInputs, index)
	}

	var slot timeinfo.Info
	metrics.RecordProbe()
	if err := c.reader.ReportTime(ctx, source, &slot); err != nil {
		// The local slot no longer belongs to any input.
		c.local = timeinfo.Info{}
		c.lastProbed = noIndex
		metrics.RecordErrorByComponent("series", "probe_error")
		return fmt.Errorf("%w: input %d (%s): %w", ErrProbeFailed, index, source, err)
	}
	c.local = slot
	c.lastProbed = index
	return nil
}

func (c *Controller) refreshManifest(ctx context.Context) error {
	if c.manifest == nil {
		return nil
	}
	names, err := c.manifest.List(ctx, c.manifestPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrManifest, c.manifestPath, err)
	}
	c.files.Clear()
	for _, name := range names {
		c.files.Add(name)
	}
	c.logger.Debug(ctx, "refreshed inputs from manifest",
		logger.String("manifest", c.manifestPath), logger.Int("inputs", len(names)))
	return nil
}

// Select resolves times to the single input that owns them and makes sure
// that input was the last one probed.
func (c *Controller) Select(ctx context.Context, times []float64) (int, error) {
	if c.files.Len() < 1 {
		metrics.RecordSelection(metrics.SelectionNoInputs)
		return noIndex, ErrNoInputs
	}
	if !c.described {
		return noIndex, ErrNotDescribed
	}

	inputs := c.registry.ChooseInputs(times)
	switch {
	case len(inputs) > 1:
		metrics.RecordSelection(metrics.SelectionMultiInput)
		return noIndex, fmt.Errorf("%w: inputs %v", ErrUnsupportedMultiInputSelection, inputs)
	case len(inputs) == 0:
		metrics.RecordSelection(metrics.SelectionNoInputs)
		return noIndex, ErrNoInputs
	}

	index := inputs[0]
	if index != c.lastProbed {
		if err := c.probe(ctx, index); err != nil {
			return noIndex, err
		}
	} else {
		metrics.RecordProbeCacheHit()
	}

	c.selected = index
	c.state = StateReady
	metrics.RecordSelection(metrics.SelectionOK)
	return index, nil
}

// Fetch selects the owning input and delegates data production to the
// reader while that input's own time info is visible.
func (c *Controller) Fetch(ctx context.Context, times []float64) (FetchResult, error) {
	index, err := c.Select(ctx, times)
	if err != nil {
		return FetchResult{}, err
	}
	source, _ := c.files.Get(index)
	window := c.LocalWindow(index, times)

	start := time.Now()
	data, err := c.produce(ctx, index, source, window)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetch("error", latency)
		metrics.RecordErrorByComponent("series", "produce_error")
		return FetchResult{}, fmt.Errorf("%w: input %d (%s): %w", ErrProduceFailed, index, source, err)
	}
	metrics.RecordFetch("ok", latency)
	return FetchResult{Index: index, Times: window, Data: data}, nil
}

func (c *Controller) produce(ctx context.Context, index int, source string, times []float64) (Data, error) {
	c.OnFetchBegin(index)
	defer c.OnFetchEnd()
	return c.reader.Produce(ctx, source, &c.visible, times)
}

// OnFetchBegin copies input index's registered info into the visible slot.
func (c *Controller) OnFetchBegin(index int) {
	c.state = StateFetching
	info, _ := c.registry.InputTimeInfo(index)
	c.visible = info
}

// OnFetchEnd restores the aggregate timeline into the visible slot.
func (c *Controller) OnFetchEnd() {
	c.visible = c.global.Clone()
	c.state = StateReady
}

// LocalWindow returns the requested times owned by index, clamped into
// the input's own range.
func (c *Controller) LocalWindow(index int, times []float64) []float64 {
	return c.registry.TimesForInput(index, times)
}

// CanRead reports whether the reader understands the series. With a
// manifest, the manifest must list at least one readable source.
func (c *Controller) CanRead(ctx context.Context) bool {
	if c.reader == nil {
		return false
	}
	if c.manifest != nil {
		names, err := c.manifest.List(ctx, c.manifestPath)
		if err != nil || len(names) == 0 {
			return false
		}
		return c.reader.CanRead(ctx, names[0])
	}
	source, ok := c.files.Get(0)
	if !ok {
		return false
	}
	return c.reader.CanRead(ctx, source)
}

// Timeline returns the published aggregate.
func (c *Controller) Timeline() timeinfo.Info { return c.global.Clone() }

// Visible returns the slot external consumers currently observe.
func (c *Controller) Visible() timeinfo.Info { return c.visible.Clone() }

// Local returns the result of the most recent probe.
func (c *Controller) Local() timeinfo.Info { return c.local.Clone() }

// InputTimeInfo returns the info registered for index.
func (c *Controller) InputTimeInfo(index int) (timeinfo.Info, bool) {
	return c.registry.InputTimeInfo(index)
}

// Inputs returns the current source list in index order.
func (c *Controller) Inputs() []string {
	out := make([]string, 0, c.files.Len())
	for i := 0; i < c.files.Len(); i++ {
		name, _ := c.files.Get(i)
		out = append(out, name)
	}
	return out
}

// Ordered returns the registered input indices in ascending start order.
func (c *Controller) Ordered() []int { return c.registry.Indices() }

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// Described reports whether a timeline has been published.
func (c *Controller) Described() bool { return c.described }

// Selected returns the last selected input, or -1.
func (c *Controller) Selected() int { return c.selected }

// LastProbed returns the last probed input, or -1.
func (c *Controller) LastProbed() int { return c.lastProbed }
