// Package seriesprobe drives a running service end to end: it creates a
// series, fetches every aggregate step concurrently and checks that each
// step is served by the input that owns it.
package seriesprobe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fileseries/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentage          = 100
)

// Run executes the complete probe and returns its report. The report is
// returned alongside ErrVerification when any step failed or broke ownership.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("seriesprobe")
	report := &Report{StartTime: time.Now(), PerInput: map[int]int{}}

	log.Info(ctx, "starting series probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("files", len(config.Files)),
		logger.String("manifest", config.Manifest),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	view, err := createSeries(ctx, client, config)
	if err != nil {
		return nil, fmt.Errorf("series creation failed: %w", err)
	}
	report.SeriesID = view.ID
	report.Inputs = view.Inputs
	report.Temporal = view.Temporal
	report.Range = view.Timeline.Range
	log.Info(ctx, "series created",
		logger.String("id", view.ID),
		logger.Int("inputs", len(view.Inputs)),
		logger.Bool("temporal", view.Temporal))

	if !config.Keep {
		defer func() {
			if err := client.do(context.Background(), http.MethodDelete, "/series/"+view.ID, nil, nil, http.StatusNoContent); err != nil {
				log.Warn(ctx, "failed to remove series", logger.String("id", view.ID), logger.Error(err))
			}
		}()
	}

	steps := probeSteps(view)
	report.Steps = len(steps)
	report.Results = fetchSteps(ctx, client, config, view.ID, steps)

	for _, r := range report.Results {
		if r.Error != "" {
			report.Failed++
			continue
		}
		report.Fetched++
		report.PerInput[r.Index]++
	}
	report.Violations = verifyResults(view, config.IgnoreReaderTime, report.Results)
	report.Duration = time.Since(report.StartTime)

	if err := saveReport(ctx, config, report); err != nil {
		log.Warn(ctx, "failed to save report", logger.Error(err))
	}
	displayFinalStats(ctx, report)

	if report.Failed > 0 || len(report.Violations) > 0 {
		return report, fmt.Errorf("%w: %d failed, %d violations", ErrVerification, report.Failed, len(report.Violations))
	}
	log.Info(ctx, "probe completed successfully")
	return report, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	// The service answers /healthz with Prometheus text, so only the status matters.
	return client.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

func createSeries(ctx context.Context, client *HTTPClient, config *Config) (seriesView, error) {
	var view seriesView
	req := createRequest{
		Files:            config.Files,
		Manifest:         config.Manifest,
		IgnoreReaderTime: config.IgnoreReaderTime,
	}
	err := client.do(ctx, http.MethodPost, "/series", req, &view, http.StatusCreated)
	return view, err
}

// probeSteps returns the times to fetch: the aggregate steps, or the range
// bounds of a range-only series.
func probeSteps(view seriesView) []float64 {
	if len(view.Timeline.Steps) > 0 {
		return view.Timeline.Steps
	}
	if rng := view.Timeline.Range; rng != nil {
		if rng.Start == rng.End {
			return []float64{rng.Start}
		}
		return []float64{rng.Start, rng.End}
	}
	return nil
}

// fetchSteps fetches every step through a worker pool. Results keep the
// order of steps.
func fetchSteps(ctx context.Context, client *HTTPClient, config *Config, id string, steps []float64) []StepResult {
	log := logger.Get().Named("seriesprobe")
	results := make([]StepResult, len(steps))

	var (
		done   int64
		failed int64
	)

	jobs := make(chan int, config.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fetchStep(ctx, client, id, steps[i])
				atomic.AddInt64(&done, 1)
				if results[i].Error != "" {
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose {
					log.Info(ctx, "step fetched",
						logger.Float64("step", steps[i]),
						logger.Int("index", results[i].Index),
						logger.String("error", results[i].Error))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range steps {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	// Steps never dispatched because ctx ended are reported as failures.
	for i := range results {
		if results[i].Error == "" && results[i].Times == nil {
			reason := "not dispatched"
			if cause := context.Cause(ctx); cause != nil {
				reason = cause.Error()
			}
			results[i] = StepResult{Step: steps[i], Index: -1, Error: reason}
		}
	}

	log.Info(ctx, "step fetch completed",
		logger.Int("fetched", int(atomic.LoadInt64(&done))),
		logger.Int("failed", int(atomic.LoadInt64(&failed))))
	return results
}

func fetchStep(ctx context.Context, client *HTTPClient, id string, step float64) StepResult {
	var res fetchResult
	err := client.do(ctx, http.MethodPost, "/series/"+id+"/fetch", fetchRequest{Times: []float64{step}}, &res, http.StatusOK)
	if err != nil {
		return StepResult{Step: step, Index: -1, Error: err.Error()}
	}
	if res.Times == nil {
		res.Times = []float64{}
	}
	return StepResult{Step: step, Index: res.Index, Times: res.Times}
}

// saveReport writes the report as YAML.
func saveReport(ctx context.Context, config *Config, report *Report) error {
	filename := config.OutputFile
	if filename == "" {
		filename = "probe_report_" + report.StartTime.Format("20060102_150405") + ".yaml"
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, report *Report) {
	var successRate, stepsPerSecond float64
	if report.Steps > 0 {
		successRate = float64(report.Fetched) / float64(report.Steps) * percentage
	}
	if report.Duration > 0 {
		stepsPerSecond = float64(report.Steps) / report.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("steps", report.Steps),
		logger.Int("fetched", report.Fetched),
		logger.Int("failed", report.Failed),
		logger.Int("violations", len(report.Violations)),
		logger.Int("inputsServed", len(report.PerInput)),
		logger.String("duration", report.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("stepsPerSecond", stepsPerSecond))
}
