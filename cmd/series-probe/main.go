package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/fileseries/internal/seriesprobe"
	"github.com/okian/fileseries/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		files      = flag.String("files", "", "Comma-separated files of the series, in index order")
		manifest   = flag.String("manifest", "", "Manifest listing the files of the series")
		ordinal    = flag.Bool("ordinal", false, "Ignore reader time and probe ordinal steps")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent fetch workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "YAML report file (default: probe_report_TIMESTAMP.yaml)")
		keep       = flag.Bool("keep", false, "Keep the series hosted after the probe")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log every fetched step")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &seriesprobe.Config{
		BaseURL:          strings.TrimRight(*baseURL, "/"),
		Manifest:         *manifest,
		IgnoreReaderTime: *ordinal,
		Workers:          *workers,
		Timeout:          *timeout,
		OutputFile:       *outputFile,
		Keep:             *keep,
		Verbose:          *verbose,
	}
	for _, f := range strings.Split(*files, ",") {
		if f = strings.TrimSpace(f); f != "" {
			config.Files = append(config.Files, f)
		}
	}

	if _, err := seriesprobe.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "probe failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
