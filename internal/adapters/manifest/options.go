package manifest

import "github.com/okian/fileseries/pkg/logger"

// Option applies a configuration option to the Provider.
type Option func(*Provider)

// WithMaxFiles caps the number of names returned per manifest. Zero or
// negative means no cap.
func WithMaxFiles(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxFiles = n
		}
	}
}

// WithLogger sets a custom logger for the provider.
func WithLogger(l logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRoot confines listed names to root. Entries resolving outside it make
// List fail with ErrOutsideRoot. An empty root confines nothing.
func WithRoot(root string) Option {
	return func(p *Provider) {
		p.root = AbsRoot(root)
	}
}
