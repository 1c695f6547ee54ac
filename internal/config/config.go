package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the immutable input parameters for a run. It is populated
// once at startup from an optional config file plus CLI flags and never
// mutated afterward.
type Config struct {
	TargetURL   string        `mapstructure:"url"`
	DatasetPath string        `mapstructure:"dataset"`
	Total       int           `mapstructure:"total"`
	Concurrency int           `mapstructure:"concurrency"`
	Rate        int           `mapstructure:"rate"`
	Timeout     time.Duration `mapstructure:"timeout"`
	JSONOutput  bool          `mapstructure:"json_output"`
	Dashboard   bool          `mapstructure:"dashboard"`
	LogErrors   bool          `mapstructure:"log_errors"`
	OutputFile  string        `mapstructure:"output_file"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   bool    `mapstructure:"propagate"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether trace export is configured, either via the
// config or the standard OTEL environment variable.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected
// into outbound requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "url is required (use --help for usage information)")
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		issues = append(issues, "dataset is required")
	}
	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}

	if c.Concurrency > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d in-flight requests). Ensure you have authorization to test the target system.\n", c.Concurrency)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
