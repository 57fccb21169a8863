package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var knownCodecs = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"webp": true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates errors that must stop startup from values
// that were corrected in place.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// Validate checks the config and returns every problem found, fatal or not.
func (c *Config) Validate() []error {
	return c.ValidateTiered().AllErrors()
}

// ValidateTiered checks the config for invalid values. Numeric settings that
// would break the scheduler or the sizing policy are clamped and reported as
// warnings; values the recorder cannot run with are fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if strings.TrimSpace(c.OutputDir) == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("output_dir must not be empty"))
	}

	c.Codec = strings.ToLower(strings.TrimSpace(c.Codec))
	if !knownCodecs[c.Codec] {
		r.Fatals = append(r.Fatals, fmt.Errorf("codec %q is not supported (use jpeg or webp)", c.Codec))
	}

	if c.DatabaseURL != "" {
		if u, err := url.Parse(c.DatabaseURL); err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("database_url %q is not a valid URL: %w", c.DatabaseURL, err))
		} else if u.Scheme != "" && u.Scheme != "sqlite" && u.Scheme != "file" {
			r.Fatals = append(r.Fatals, fmt.Errorf("database_url scheme must be sqlite or file, got %q", u.Scheme))
		}
	}

	// time.NewTicker panics on a non-positive interval
	if c.IntervalMs < 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("interval_ms %d is below minimum 100, clamping", c.IntervalMs))
		c.IntervalMs = 100
	} else if c.IntervalMs > 3_600_000 {
		r.Warnings = append(r.Warnings, fmt.Errorf("interval_ms %d exceeds maximum 3600000, clamping", c.IntervalMs))
		c.IntervalMs = 3_600_000
	}

	if c.Quality < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("quality %d is below minimum 1, clamping", c.Quality))
		c.Quality = 1
	} else if c.Quality > 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("quality %d exceeds maximum 100, clamping", c.Quality))
		c.Quality = 100
	}

	if c.MinWidth < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("min_width %d is below minimum 1, clamping", c.MinWidth))
		c.MinWidth = 1
	} else if c.MinWidth > 16384 {
		r.Warnings = append(r.Warnings, fmt.Errorf("min_width %d exceeds maximum 16384, clamping", c.MinWidth))
		c.MinWidth = 16384
	}

	if c.WidthDivisor < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("width_divisor %g is below minimum 1, resetting to 1.7", c.WidthDivisor))
		c.WidthDivisor = 1.7
	}

	for _, idx := range c.Displays {
		if idx < 0 {
			r.Warnings = append(r.Warnings, fmt.Errorf("displays entry %d is negative and will never match", idx))
		}
	}

	if c.DrainTimeoutSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("drain_timeout_seconds %d is below minimum 1, clamping", c.DrainTimeoutSeconds))
		c.DrainTimeoutSeconds = 1
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}

	return r
}
