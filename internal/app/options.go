package service

import (
	"github.com/okian/fileseries/internal/adapters/manifest"
	"github.com/okian/fileseries/internal/domain/series"
	"github.com/okian/fileseries/internal/domain/timeline"
	"github.com/okian/fileseries/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithReader sets the reader shared by every hosted series.
func WithReader(r series.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithManifestProvider sets the provider used for manifest-backed series.
func WithManifestProvider(p series.ManifestProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.manifest = p
		}
	}
}

// WithMaxSeries caps the number of hosted series.
func WithMaxSeries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSeries = n
		}
	}
}

// WithMaxManifestFiles caps the names taken from one manifest when the
// service builds its default manifest provider.
func WithMaxManifestFiles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxManifestFiles = n
		}
	}
}

// WithDataRoot confines every series source and manifest to root. Relative
// names are resolved against it. An empty root confines nothing.
func WithDataRoot(root string) Option {
	return func(s *Service) {
		s.dataRoot = manifest.AbsRoot(root)
	}
}

// WithIgnoreReaderTime makes every series use ordinal time.
func WithIgnoreReaderTime(ignore bool) Option {
	return func(s *Service) {
		s.ignoreReaderTime = ignore
	}
}

// WithDuplicateStartPolicy sets the collision policy for every series.
func WithDuplicateStartPolicy(p timeline.DuplicateStartPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the tracer used for service spans.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		if tr != nil {
			s.tracer = tr
		}
	}
}
