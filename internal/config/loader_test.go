package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/fileseries/internal/config"
	"github.com/okian/fileseries/internal/domain/timeline"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
				convey.So(cfg.MaxSeries, convey.ShouldEqual, 64)
				convey.So(cfg.Policy(), convey.ShouldEqual, timeline.DuplicateStartReject)
				convey.So(cfg.SeriesFiles, convey.ShouldBeEmpty)
				convey.So(cfg.DataRoot, convey.ShouldEqual, ".")
			})
		})

		convey.Convey("When a data root is configured through env", func() {
			_ = os.Setenv("FILESERIES_DATA_ROOT", "/srv/series")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then sources are confined to it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataRoot, convey.ShouldEqual, "/srv/series")
			})
		})

		convey.Convey("When the data root is cleared in the YAML file", func() {
			tmpFile := createTempConfigFile("data_root: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then confinement is disabled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataRoot, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FILESERIES_ADDR", ":8080")
			_ = os.Setenv("FILESERIES_LOG_FORMAT", "json")
			_ = os.Setenv("FILESERIES_IGNORE_READER_TIME", "true")
			_ = os.Setenv("FILESERIES_DUPLICATE_START_POLICY", "replace")
			_ = os.Setenv("FILESERIES_MAX_MANIFEST_FILES", "10")
			_ = os.Setenv("FILESERIES_MAX_SERIES", "3")
			_ = os.Setenv("FILESERIES_SERIES_FILES", "a.yaml, b.yaml,,c.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.IgnoreReaderTime, convey.ShouldBeTrue)
				convey.So(cfg.Policy(), convey.ShouldEqual, timeline.DuplicateStartReplace)
				convey.So(cfg.MaxManifestFiles, convey.ShouldEqual, 10)
				convey.So(cfg.MaxSeries, convey.ShouldEqual, 3)
				convey.So(cfg.SeriesFiles, convey.ShouldResemble, []string{"a.yaml", "b.yaml", "c.yaml"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: debug
max_series: 8
series_manifest: /data/run.series
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.MaxSeries, convey.ShouldEqual, 8)
				convey.So(cfg.SeriesManifest, convey.ShouldEqual, "/data/run.series")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text") // From defaults
			})
		})

		convey.Convey("When loading config with a YAML file list", func() {
			yamlContent := `
series_files:
  - t0.yaml
  - t1.yaml
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the list is kept in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SeriesFiles, convey.ShouldResemble, []string{"t0.yaml", "t1.yaml"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
max_series: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			_ = os.Setenv("FILESERIES_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.MaxSeries, convey.ShouldEqual, 8)  // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FILESERIES_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FILESERIES_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown duplicate start policy", func() {
			_ = os.Setenv("FILESERIES_DUPLICATE_START_POLICY", "merge")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, timeline.ErrUnknownPolicy), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FILESERIES_MAX_SERIES", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When max_series is zero", func() {
			_ = os.Setenv("FILESERIES_MAX_SERIES", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When max_manifest_files is negative", func() {
			_ = os.Setenv("FILESERIES_MAX_MANIFEST_FILES", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			_ = os.Setenv("FILESERIES_LOG_FORMAT", "xml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an OTLP exporter is configured through env", func() {
			_ = os.Setenv("FILESERIES_TRACE_EXPORTER", "otlp")
			_ = os.Setenv("FILESERIES_TRACE_ENDPOINT", "collector:4318")
			_ = os.Setenv("FILESERIES_TRACE_INSECURE", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the tracing fields are set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TraceExporter, convey.ShouldEqual, "otlp")
				convey.So(cfg.TraceEndpoint, convey.ShouldEqual, "collector:4318")
				convey.So(cfg.TraceInsecure, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the trace exporter is unknown", func() {
			_ = os.Setenv("FILESERIES_TRACE_EXPORTER", "zipkin")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When both a file list and a manifest are configured", func() {
			_ = os.Setenv("FILESERIES_SERIES_FILES", "a.yaml")
			_ = os.Setenv("FILESERIES_SERIES_MANIFEST", "run.series")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "mutually exclusive")
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
# Another comment
duplicate_start_policy: Replace
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILESERIES_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Policy(), convey.ShouldEqual, timeline.DuplicateStartReplace)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FILESERIES_CONFIG",
		"FILESERIES_ADDR",
		"FILESERIES_LOG_LEVEL",
		"FILESERIES_LOG_FORMAT",
		"FILESERIES_TRACE_EXPORTER",
		"FILESERIES_TRACE_ENDPOINT",
		"FILESERIES_TRACE_INSECURE",
		"FILESERIES_IGNORE_READER_TIME",
		"FILESERIES_DUPLICATE_START_POLICY",
		"FILESERIES_MAX_MANIFEST_FILES",
		"FILESERIES_MAX_SERIES",
		"FILESERIES_DATA_ROOT",
		"FILESERIES_SERIES_FILES",
		"FILESERIES_SERIES_MANIFEST",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fileseries-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
