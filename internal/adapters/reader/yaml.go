// Package reader provides a series.Reader for YAML data files.
//
// A data file may carry any of these top-level keys:
//
//	time_steps: [0, 0.5, 1]   # discrete time values, ascending
//	time_range: [0, 1]        # closed interval
//	data: ...                 # payload returned by Produce
//
// A file with neither time key has no notion of time.
package reader

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/fileseries/internal/domain/series"
	"github.com/okian/fileseries/internal/domain/timeinfo"
	"github.com/okian/fileseries/pkg/logger"
)

const (
	keyTimeSteps = "time_steps"
	keyTimeRange = "time_range"
	keyData      = "data"
)

// Payload is what YAMLReader.Produce returns.
type Payload struct {
	Source string          `json:"source" yaml:"source"`
	Times  []float64       `json:"times" yaml:"times"`
	Range  *timeinfo.Range `json:"range,omitempty" yaml:"range,omitempty"`
	Data   any             `json:"data,omitempty" yaml:"data,omitempty"`
}

// YAMLReader reads time metadata and payloads from YAML files.
type YAMLReader struct {
	logger logger.Logger
}

var _ series.Reader = (*YAMLReader)(nil)

// NewYAMLReader constructs a YAMLReader.
func NewYAMLReader(opts ...Option) *YAMLReader {
	r := &YAMLReader{logger: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *YAMLReader) load(source string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(source), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, source, err)
	}
	return k, nil
}

// ReportTime fills slot with the file's time keys. A file without them
// leaves slot empty.
func (r *YAMLReader) ReportTime(ctx context.Context, source string, slot *timeinfo.Info) error {
	k, err := r.load(source)
	if err != nil {
		return err
	}

	var info timeinfo.Info
	if k.Exists(keyTimeSteps) {
		info.Steps = k.Float64s(keyTimeSteps)
	}
	if k.Exists(keyTimeRange) {
		bounds := k.Float64s(keyTimeRange)
		if len(bounds) != 2 {
			return fmt.Errorf("%w: %s: %s needs exactly 2 values, got %d", ErrTimeData, source, keyTimeRange, len(bounds))
		}
		info.Range = timeinfo.NewRange(bounds[0], bounds[1])
	}
	if err := info.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTimeData, source, err)
	}

	*slot = info
	r.logger.Debug(ctx, "reported time",
		logger.String("source", source),
		logger.Bool("range", info.HasRange()),
		logger.Int("steps", len(info.Steps)),
	)
	return nil
}

// Produce returns the file's payload for times. The slot holds the file's
// own time info while Produce runs.
func (r *YAMLReader) Produce(ctx context.Context, source string, slot *timeinfo.Info, times []float64) (series.Data, error) {
	k, err := r.load(source)
	if err != nil {
		return nil, err
	}

	p := Payload{Source: source, Times: times, Data: k.Get(keyData)}
	if slot != nil && slot.Range != nil {
		rng := *slot.Range
		p.Range = &rng
	}
	r.logger.Debug(ctx, "produced data", logger.String("source", source), logger.Float64s("times", times))
	return p, nil
}

// CanRead reports whether source parses as YAML.
func (r *YAMLReader) CanRead(_ context.Context, source string) bool {
	_, err := r.load(source)
	return err == nil
}
