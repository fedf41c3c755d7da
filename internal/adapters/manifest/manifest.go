// Package manifest reads manifests: files that list the sources of a series.
//
// Two layouts are understood. A plain manifest holds whitespace-separated
// names. A manifest ending in .yaml or .yml holds a top-level "files" list.
// Relative names are resolved against the manifest's own directory; a name
// is absolute when it starts with "/" or a drive letter such as "C:".
// A provider built WithRoot refuses entries that resolve outside its root.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/fileseries/pkg/logger"
	"github.com/okian/fileseries/pkg/metrics"
)

const filesKey = "files"

// Provider lists manifest entries. It implements series.ManifestProvider.
type Provider struct {
	maxFiles int
	root     string
	logger   logger.Logger
}

// New constructs a Provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: logger.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// List returns the resolved source names in manifest order.
func (p *Provider) List(ctx context.Context, path string) ([]string, error) {
	names, err := p.read(path)
	if err != nil {
		metrics.RecordManifestRead("error")
		p.logger.Warn(ctx, "could not read manifest", logger.String("manifest", path), logger.Error(err))
		return nil, err
	}
	base := dirPrefix(path)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if p.maxFiles > 0 && len(out) >= p.maxFiles {
			break
		}
		if name == "" {
			continue
		}
		if !IsAbsolute(name) {
			name = base + name
		}
		confined, err := Confine(p.root, name)
		if err != nil {
			metrics.RecordManifestRead("outside_root")
			p.logger.Warn(ctx, "manifest lists a source outside the data root",
				logger.String("manifest", path), logger.String("source", name))
			return nil, err
		}
		out = append(out, confined)
	}

	metrics.RecordManifestRead("ok")
	p.logger.Debug(ctx, "read manifest", logger.String("manifest", path), logger.Int("files", len(out)))
	return out, nil
}

func (p *Provider) read(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty manifest path", ErrRetrieval)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAML(path)
	default:
		return readPlain(path)
	}
}

func readPlain(path string) ([]string, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // manifest paths are operator supplied
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return strings.Fields(string(raw)), nil
}

func readYAML(path string) ([]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if !k.Exists(filesKey) {
		return nil, fmt.Errorf("%w: %s has no %q list", ErrRetrieval, path, filesKey)
	}
	names := k.Strings(filesKey)
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names, nil
}

// IsAbsolute reports whether name needs no manifest-relative prefix.
func IsAbsolute(name string) bool {
	if name == "" {
		return false
	}
	return name[0] == '/' || (len(name) >= 2 && name[1] == ':')
}

// dirPrefix returns everything up to and including the last path separator
// of path, or "" when path has none.
func dirPrefix(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[:i+1]
	}
	return ""
}
