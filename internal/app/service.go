// Package service hosts many independent file series behind one API.
//
// Each series owns a series.Controller and a mutex. Calls on one series
// are serialized; different series proceed concurrently.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fileseries/internal/adapters/manifest"
	"github.com/okian/fileseries/internal/adapters/reader"
	"github.com/okian/fileseries/internal/domain/series"
	"github.com/okian/fileseries/internal/domain/timeinfo"
	"github.com/okian/fileseries/internal/domain/timeline"
	"github.com/okian/fileseries/pkg/logger"
	"github.com/okian/fileseries/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName       = "github.com/okian/fileseries/internal/app"
	defaultMaxSeries = 64
)

// SeriesSpec describes a series to create. Exactly one of Files and
// Manifest must be set.
type SeriesSpec struct {
	Files            []string `json:"files,omitempty" yaml:"files,omitempty"`
	Manifest         string   `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	IgnoreReaderTime bool     `json:"ignore_reader_time,omitempty" yaml:"ignore_reader_time,omitempty"`
}

func (s SeriesSpec) validate() error {
	hasFiles := len(s.Files) > 0
	hasManifest := strings.TrimSpace(s.Manifest) != ""
	switch {
	case hasFiles && hasManifest:
		return fmt.Errorf("%w: files and manifest are mutually exclusive", ErrInvalidSpec)
	case !hasFiles && !hasManifest:
		return fmt.Errorf("%w: files or manifest required", ErrInvalidSpec)
	}
	for i, f := range s.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: files[%d] is empty", ErrInvalidSpec, i)
		}
	}
	return nil
}

// confine resolves every path of s against root. Paths outside root make
// the spec invalid.
func (s SeriesSpec) confine(root string) (SeriesSpec, error) {
	if root == "" {
		return s, nil
	}
	out := s
	if s.Manifest != "" {
		path, err := manifest.Confine(root, s.Manifest)
		if err != nil {
			return s, fmt.Errorf("%w: manifest: %w", ErrInvalidSpec, err)
		}
		out.Manifest = path
	}
	if len(s.Files) > 0 {
		out.Files = make([]string, len(s.Files))
		for i, f := range s.Files {
			path, err := manifest.Confine(root, f)
			if err != nil {
				return s, fmt.Errorf("%w: files[%d]: %w", ErrInvalidSpec, i, err)
			}
			out.Files[i] = path
		}
	}
	return out, nil
}

// SeriesView is the read shape of one hosted series.
type SeriesView struct {
	ID        string        `json:"id" yaml:"id"`
	Manifest  string        `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Inputs    []string      `json:"inputs" yaml:"inputs"`
	Ordered   []int         `json:"ordered" yaml:"ordered"`
	Timeline  timeinfo.Info `json:"timeline" yaml:"timeline"`
	Temporal  bool          `json:"temporal" yaml:"temporal"`
	State     string        `json:"state" yaml:"state"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

type hosted struct {
	mu        sync.Mutex
	id        string
	spec      SeriesSpec
	ctrl      *series.Controller
	createdAt time.Time
}

func (h *hosted) view() SeriesView {
	info := h.ctrl.Timeline()
	return SeriesView{
		ID:        h.id,
		Manifest:  h.spec.Manifest,
		Inputs:    h.ctrl.Inputs(),
		Ordered:   h.ctrl.Ordered(),
		Timeline:  info,
		Temporal:  info.Temporal(),
		State:     h.ctrl.State().String(),
		CreatedAt: h.createdAt,
	}
}

// Service implements the API dependencies for hosted series.
type Service struct {
	mu sync.RWMutex

	// Core components
	series   map[string]*hosted
	reader   series.Reader
	manifest series.ManifestProvider

	// Configuration
	maxSeries        int
	maxManifestFiles int
	dataRoot         string
	ignoreReaderTime bool
	policy           timeline.DuplicateStartPolicy

	// State
	started   bool
	startedAt time.Time

	tracer trace.Tracer
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		series:    make(map[string]*hosted),
		maxSeries: defaultMaxSeries,
		policy:    timeline.DuplicateStartReject,
		tracer:    nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:    nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start fills in default collaborators and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		if logger.Initialized() {
			s.logger = logger.Named("service")
		} else {
			s.logger = logger.Discard()
		}
	}
	if s.reader == nil {
		s.reader = reader.NewYAMLReader(reader.WithLogger(s.logger.Named("reader")))
	}
	if s.manifest == nil {
		s.manifest = manifest.New(
			manifest.WithMaxFiles(s.maxManifestFiles),
			manifest.WithRoot(s.dataRoot),
			manifest.WithLogger(s.logger.Named("manifest")),
		)
	}

	s.started = true
	s.startedAt = time.Now()
	metrics.UpdateSeriesHosted(len(s.series))
	s.logger.Info(ctx, "file series service started",
		logger.Int("maxSeries", s.maxSeries),
		logger.String("dataRoot", s.dataRoot),
		logger.String("duplicateStartPolicy", string(s.policy)),
		logger.Bool("ignoreReaderTime", s.ignoreReaderTime),
	)
	return nil
}

// Stop drops every hosted series.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.series = make(map[string]*hosted)
	metrics.UpdateSeriesHosted(0)
	s.started = false
	s.logger.Info(context.Background(), "file series service stopped")
}

// CreateSeries builds, describes and hosts a new series.
func (s *Service) CreateSeries(ctx context.Context, spec SeriesSpec) (SeriesView, error) {
	ctx, span := s.tracer.Start(ctx, "Service.CreateSeries", trace.WithAttributes(
		attribute.Int("series.files", len(spec.Files)),
		attribute.String("series.manifest", spec.Manifest),
	))
	defer span.End()

	if err := spec.validate(); err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "invalid series spec")
	}
	spec, err := spec.confine(s.dataRoot)
	if err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "series path outside data root")
	}

	s.mu.RLock()
	started, count := s.started, len(s.series)
	s.mu.RUnlock()
	if !started {
		return SeriesView{}, s.fail(ctx, span, ErrNotStarted, "service not started")
	}
	if count >= s.maxSeries {
		return SeriesView{}, s.fail(ctx, span, fmt.Errorf("%w: %d", ErrCapacity, s.maxSeries), "series capacity reached")
	}

	opts := []series.Option{
		series.WithIgnoreReaderTime(s.ignoreReaderTime || spec.IgnoreReaderTime),
		series.WithRegistryOptions(timeline.WithDuplicateStartPolicy(s.policy)),
	}
	if spec.Manifest != "" {
		opts = append(opts, series.WithManifest(s.manifest, spec.Manifest))
	}

	h := &hosted{
		id:        uuid.NewString(),
		spec:      spec,
		createdAt: time.Now().UTC(),
	}
	opts = append(opts, series.WithLogger(s.logger.Named("series").Named(h.id)))
	h.ctrl = series.New(s.reader, series.NewFileList(spec.Files...), opts...)
	span.SetAttributes(attribute.String("series.id", h.id))

	if spec.Manifest != "" {
		if err := s.checkManifest(ctx, spec.Manifest); err != nil {
			return SeriesView{}, s.fail(ctx, span, err, "manifest lists a source outside data root")
		}
	}
	if !h.ctrl.CanRead(ctx) {
		return SeriesView{}, s.fail(ctx, span, ErrUnreadable, "reader cannot read series")
	}
	if _, err := h.ctrl.Describe(ctx); err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "initial describe failed")
	}

	s.mu.Lock()
	if len(s.series) >= s.maxSeries {
		s.mu.Unlock()
		return SeriesView{}, s.fail(ctx, span, fmt.Errorf("%w: %d", ErrCapacity, s.maxSeries), "series capacity reached")
	}
	s.series[h.id] = h
	hostedCount := len(s.series)
	s.mu.Unlock()

	metrics.UpdateSeriesHosted(hostedCount)
	view := h.view()
	s.logger.Info(ctx, "series created",
		logger.String("id", h.id),
		logger.Int("inputs", len(view.Inputs)),
		logger.Bool("temporal", view.Temporal),
	)
	return view, nil
}

// Describe re-runs the describe phase of series id.
func (s *Service) Describe(ctx context.Context, id string) (SeriesView, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Describe", trace.WithAttributes(attribute.String("series.id", id)))
	defer span.End()

	h, err := s.get(id)
	if err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "describe on unknown series", logger.String("id", id))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.ctrl.Describe(ctx); err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "describe failed", logger.String("id", id))
	}
	return h.view(), nil
}

// Get returns the current view of series id.
func (s *Service) Get(ctx context.Context, id string) (SeriesView, error) {
	_, span := s.tracer.Start(ctx, "Service.Get", trace.WithAttributes(attribute.String("series.id", id)))
	defer span.End()

	h, err := s.get(id)
	if err != nil {
		return SeriesView{}, s.fail(ctx, span, err, "get on unknown series", logger.String("id", id))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view(), nil
}

// Timeline returns the aggregate timeline of series id.
func (s *Service) Timeline(ctx context.Context, id string) (timeinfo.Info, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return timeinfo.Info{}, err
	}
	return view.Timeline, nil
}

// Inputs returns the sources of series id in index order.
func (s *Service) Inputs(ctx context.Context, id string) ([]string, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view.Inputs, nil
}

// Fetch produces data for times from the single input that owns them.
func (s *Service) Fetch(ctx context.Context, id string, times []float64) (series.FetchResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Fetch", trace.WithAttributes(
		attribute.String("series.id", id),
		attribute.Float64Slice("series.times", times),
	))
	defer span.End()

	h, err := s.get(id)
	if err != nil {
		return series.FetchResult{}, s.fail(ctx, span, err, "fetch on unknown series", logger.String("id", id))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.ctrl.Fetch(ctx, times)
	if err != nil {
		return series.FetchResult{}, s.fail(ctx, span, err, "fetch failed",
			logger.String("id", id), logger.Float64s("times", times))
	}
	span.SetAttributes(attribute.Int("series.input", res.Index))
	return res, nil
}

// Window returns the requested times that input index owns, clamped into
// its own range.
func (s *Service) Window(ctx context.Context, id string, index int, times []float64) ([]float64, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Window", trace.WithAttributes(
		attribute.String("series.id", id),
		attribute.Int("series.input", index),
	))
	defer span.End()

	h, err := s.get(id)
	if err != nil {
		return nil, s.fail(ctx, span, err, "window on unknown series", logger.String("id", id))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.ctrl.InputTimeInfo(index); !ok {
		return nil, s.fail(ctx, span, fmt.Errorf("%w: %d", ErrUnknownInput, index), "window on unknown input",
			logger.String("id", id), logger.Int("index", index))
	}
	return h.ctrl.LocalWindow(index, times), nil
}

// Remove drops series id.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "Service.Remove", trace.WithAttributes(attribute.String("series.id", id)))
	defer span.End()

	s.mu.Lock()
	if _, ok := s.series[id]; !ok {
		s.mu.Unlock()
		return s.fail(ctx, span, fmt.Errorf("%w: %s", ErrNotFound, id), "remove on unknown series")
	}
	delete(s.series, id)
	count := len(s.series)
	s.mu.Unlock()

	metrics.UpdateSeriesHosted(count)
	s.logger.Info(ctx, "series removed", logger.String("id", id))
	return nil
}

// List returns every hosted series, oldest first.
func (s *Service) List(ctx context.Context) []SeriesView {
	_, span := s.tracer.Start(ctx, "Service.List")
	defer span.End()

	s.mu.RLock()
	all := make([]*hosted, 0, len(s.series))
	for _, h := range s.series {
		all = append(all, h)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].id < all[j].id
		}
		return all[i].createdAt.Before(all[j].createdAt)
	})

	out := make([]SeriesView, 0, len(all))
	for _, h := range all {
		h.mu.Lock()
		out = append(out, h.view())
		h.mu.Unlock()
	}
	span.SetAttributes(attribute.Int("series.count", len(out)))
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":              s.started,
		"series":               len(s.series),
		"maxSeries":            s.maxSeries,
		"dataRoot":             s.dataRoot,
		"ignoreReaderTime":     s.ignoreReaderTime,
		"duplicateStartPolicy": string(s.policy),
	}

	if s.started {
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		goroutines := runtime.NumGoroutine()
		stats["goroutines"] = goroutines
		stats["heapAllocBytes"] = mem.HeapAlloc

		// Update metrics
		metrics.UpdateSeriesHosted(len(s.series))
		metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
		metrics.UpdateSystemGoroutineCount(goroutines)
		if mem.NumGC > 0 {
			metrics.RecordSystemGCPauseTime(float64(mem.PauseTotalNs) / float64(mem.NumGC) / float64(time.Millisecond))
		}
	}

	return stats
}

func (s *Service) get(id string) (*hosted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	h, ok := s.series[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h, nil
}

// fail records err on the span, logs it and counts it.
func (s *Service) fail(ctx context.Context, span trace.Span, err error, msg string, fields ...logger.Field) error {
	kind := ErrorKind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", kind))
	metrics.RecordErrorByComponent("service", kind)
	metrics.RecordErrorByType(kind, severity(kind))

	l := s.logger
	if l == nil {
		l = logger.Discard()
	}
	l.Warn(ctx, msg, append(fields, logger.String("kind", kind), logger.Error(err))...)
	return err
}

// checkManifest rejects a manifest whose entries leave the data root. Read
// failures are left to the readability check.
func (s *Service) checkManifest(ctx context.Context, path string) error {
	if s.dataRoot == "" {
		return nil
	}
	names, err := s.manifest.List(ctx, path)
	if err != nil {
		if errors.Is(err, manifest.ErrOutsideRoot) {
			return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
		return nil
	}
	for _, name := range names {
		if _, err := manifest.Confine(s.dataRoot, name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
	}
	return nil
}

// ErrorKind maps an error to a short label for metrics and responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrUnreadable):
		return "unreadable"
	case errors.Is(err, ErrInvalidSpec), errors.Is(err, manifest.ErrOutsideRoot):
		return "invalid_spec"
	case errors.Is(err, ErrUnknownInput):
		return "unknown_input"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, series.ErrUnsupportedMultiInputSelection):
		return "multi_input_selection"
	case errors.Is(err, series.ErrNoInputs):
		return "no_inputs"
	case errors.Is(err, series.ErrNotDescribed):
		return "not_described"
	case errors.Is(err, series.ErrManifest):
		return "manifest"
	case errors.Is(err, series.ErrProbeFailed):
		return "probe_failed"
	case errors.Is(err, series.ErrProduceFailed):
		return "produce_failed"
	default:
		return "internal"
	}
}

func severity(kind string) string {
	switch kind {
	case "internal", "probe_failed", "produce_failed", "manifest":
		return "high"
	default:
		return "low"
	}
}
