package reader

import "github.com/okian/fileseries/pkg/logger"

// Option applies a configuration option to the YAMLReader.
type Option func(*YAMLReader)

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *YAMLReader) {
		if l != nil {
			r.logger = l
		}
	}
}
