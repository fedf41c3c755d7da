package seriesprobe

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/fileseries/internal/domain/timeinfo"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid probe config")

// Config holds configuration for one probe run.
type Config struct {
	BaseURL          string        // Base URL of the service
	Files            []string      // Files of the series, in index order
	Manifest         string        // Manifest path, exclusive with Files
	IgnoreReaderTime bool          // Ask the service for ordinal time
	Workers          int           // Number of concurrent fetch workers
	Timeout          time.Duration // HTTP request timeout
	OutputFile       string        // YAML report path
	Keep             bool          // Leave the series hosted after the run
	Verbose          bool          // Log every fetch
}

// Validate checks the fields Run depends on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url required"))
	case len(c.Files) == 0 && c.Manifest == "":
		return errors.Join(ErrInvalidConfig, errors.New("files or manifest required"))
	case len(c.Files) > 0 && c.Manifest != "":
		return errors.Join(ErrInvalidConfig, errors.New("files and manifest are mutually exclusive"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	}
	return nil
}

// createRequest mirrors the body of POST /series.
type createRequest struct {
	Files            []string `json:"files,omitempty"`
	Manifest         string   `json:"manifest,omitempty"`
	IgnoreReaderTime bool     `json:"ignore_reader_time,omitempty"`
}

// seriesView is the subset of the service's series shape the probe reads.
type seriesView struct {
	ID       string        `json:"id"`
	Inputs   []string      `json:"inputs"`
	Timeline timeinfo.Info `json:"timeline"`
	Temporal bool          `json:"temporal"`
}

type fetchRequest struct {
	Times []float64 `json:"times"`
}

type fetchResult struct {
	Index int       `json:"index"`
	Times []float64 `json:"times"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StepResult records how one aggregate step was served.
type StepResult struct {
	Step  float64   `yaml:"step"`
	Index int       `yaml:"index"`
	Times []float64 `yaml:"times,omitempty"`
	Error string    `yaml:"error,omitempty"`
}

// Report is the outcome of a probe run, written as YAML.
type Report struct {
	SeriesID   string          `yaml:"series_id"`
	Inputs     []string        `yaml:"inputs"`
	Temporal   bool            `yaml:"temporal"`
	Range      *timeinfo.Range `yaml:"range,omitempty"`
	Steps      int             `yaml:"steps"`
	Fetched    int             `yaml:"fetched"`
	Failed     int             `yaml:"failed"`
	PerInput   map[int]int     `yaml:"per_input"`
	Violations []string        `yaml:"violations,omitempty"`
	Results    []StepResult    `yaml:"results"`
	StartTime  time.Time       `yaml:"start_time"`
	Duration   time.Duration   `yaml:"duration"`
}
