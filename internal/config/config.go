// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and FILESERIES_* environment variables on top.
// - Validation errors wrap ErrInvalidConfig; provider errors wrap ErrLoadConfig.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// TraceExporter selects the span exporter: none, stdout or otlp.
	TraceExporter string `koanf:"trace_exporter"`

	// TraceEndpoint is the OTLP/HTTP collector host:port.
	TraceEndpoint string `koanf:"trace_endpoint"`

	// TraceInsecure disables TLS towards the collector.
	TraceInsecure bool `koanf:"trace_insecure"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// IgnoreReaderTime makes every series use ordinal time regardless of
	// what its reader reports.
	IgnoreReaderTime bool `koanf:"ignore_reader_time"`

	// DuplicateStartPolicy decides how colliding input start times are
	// handled: reject or replace.
	DuplicateStartPolicy string `koanf:"duplicate_start_policy"`

	// DataRoot confines series sources and manifests to one directory.
	// Relative names resolve against it. Empty disables confinement.
	DataRoot string `koanf:"data_root"`

	// MaxManifestFiles caps how many names are taken from one manifest.
	// Zero means no cap.
	MaxManifestFiles int `koanf:"max_manifest_files"`

	// MaxSeries caps the number of series hosted at once.
	MaxSeries int `koanf:"max_series"`

	// SeriesFiles and SeriesManifest optionally describe a series created
	// at startup.
	SeriesFiles    []string `koanf:"series_files"`
	SeriesManifest string   `koanf:"series_manifest"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		TraceExporter:        "none",
		Addr:                 ":9080",
		IgnoreReaderTime:     false,
		DuplicateStartPolicy: "reject",
		DataRoot:             ".",
		MaxManifestFiles:     0,
		MaxSeries:            64,
	}
}
