package series

import (
	"github.com/okian/fileseries/internal/domain/timeline"
	"github.com/okian/fileseries/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithIgnoreReaderTime makes Describe synthesize one time step per input
// even when the reader reports real time.
func WithIgnoreReaderTime(ignore bool) Option {
	return func(c *Controller) {
		c.ignoreReaderTime = ignore
	}
}

// WithManifest makes Describe refresh the input list from the manifest at path.
func WithManifest(provider ManifestProvider, path string) Option {
	return func(c *Controller) {
		if provider != nil && path != "" {
			c.manifest = provider
			c.manifestPath = path
		}
	}
}

// WithLogger sets a custom logger for the controller and its registry.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistryOptions forwards options to the time range registry.
func WithRegistryOptions(opts ...timeline.Option) Option {
	return func(c *Controller) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}
