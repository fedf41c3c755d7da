package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/fileseries/internal/adapters/http/api"
	service "github.com/okian/fileseries/internal/app"
	"github.com/okian/fileseries/internal/config"
	"github.com/okian/fileseries/pkg/logger"
	"github.com/okian/fileseries/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	serviceName            = "fileseries"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger format comes from config, so report on stderr.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(strings.ToLower(cfg.LogFormat))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tp, shutdownTracing, err := tracing.Init(ctx, serviceName,
		tracing.WithExporter(cfg.TraceExporter),
		tracing.WithEndpoint(cfg.TraceEndpoint),
		tracing.WithInsecure(cfg.TraceInsecure),
	)
	if err != nil {
		loggerInstance.Error(ctx, "failed to initialize tracing", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			loggerInstance.Warn(ctx, "trace flush failed", logger.Error(err))
		}
	}()

	svc := service.New(serviceOptions(cfg, loggerInstance, tp.Tracer(serviceName))...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if err := bootstrap(ctx, cfg, svc); err != nil {
		loggerInstance.Error(ctx, "failed to create startup series", logger.Error(err))
		return
	}

	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(ctx, cfg, svc)

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, l logger.Logger, tracer trace.Tracer) []service.Option {
	return []service.Option{
		service.WithLogger(l.Named("service")),
		service.WithTracer(tracer),
		service.WithMaxSeries(cfg.MaxSeries),
		service.WithMaxManifestFiles(cfg.MaxManifestFiles),
		service.WithDataRoot(cfg.DataRoot),
		service.WithIgnoreReaderTime(cfg.IgnoreReaderTime),
		service.WithDuplicateStartPolicy(cfg.Policy()),
	}
}

// bootstrap creates the series named by configuration, if any.
func bootstrap(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	if len(cfg.SeriesFiles) == 0 && cfg.SeriesManifest == "" {
		return nil
	}
	view, err := svc.CreateSeries(ctx, service.SeriesSpec{
		Files:    cfg.SeriesFiles,
		Manifest: cfg.SeriesManifest,
	})
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "startup series ready",
		logger.String("id", view.ID),
		logger.Int("inputs", len(view.Inputs)))
	return nil
}

func newHTTPServer(ctx context.Context, cfg *config.Config, svc *service.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startServiceMetricsUpdater refreshes the gauges GetStats maintains.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
