package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/fileseries/internal/domain/timeline"
)

const (
	envPrefix     = "FILESERIES_"
	envConfigPath = "FILESERIES_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FILESERIES_CONFIG is set
//  3. env (prefix FILESERIES_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// FILESERIES_MAX_SERIES -> max_series. Underscores are kept so keys stay
	// flat and match the koanf tags. FILESERIES_SERIES_FILES is a
	// comma-separated list.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "series_files" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that Load cannot coerce.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.TraceExporter) {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("%w: trace_exporter %q", ErrInvalidConfig, c.TraceExporter)
	}
	if _, err := timeline.ParseDuplicateStartPolicy(c.DuplicateStartPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxManifestFiles < 0 {
		return fmt.Errorf("%w: max_manifest_files must not be negative", ErrInvalidConfig)
	}
	if c.MaxSeries < 1 {
		return fmt.Errorf("%w: max_series must be positive", ErrInvalidConfig)
	}
	if len(c.SeriesFiles) > 0 && c.SeriesManifest != "" {
		return fmt.Errorf("%w: series_files and series_manifest are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// Policy returns the parsed duplicate start policy. Call after Validate.
func (c *Config) Policy() timeline.DuplicateStartPolicy {
	p, _ := timeline.ParseDuplicateStartPolicy(c.DuplicateStartPolicy)
	return p
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
