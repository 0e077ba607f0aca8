package config

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var recognizedEncodings = map[string]bool{
	"json":    true,
	"console": true,
}

var recognizedLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Agent.DefaultProfile == "" {
		errs = append(errs, ValidationError{Field: "agent.default_profile", Message: "is required"})
	}

	durations := []struct {
		field string
		value string
	}{
		{"agent.scan_interval", cfg.Agent.ScanInterval},
		{"agent.retry_delay", cfg.Agent.RetryDelay},
		{"reporter.timeout", cfg.Reporter.Timeout},
		{"scanner.timeout", cfg.Scanner.Timeout},
	}
	for _, d := range durations {
		if _, err := ParseInterval(d.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration %q: %v", d.value, err),
			})
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}

	if cfg.Reporter.APIURL != "" {
		if msg := checkHTTPURL(cfg.Reporter.APIURL); msg != "" {
			errs = append(errs, ValidationError{Field: "reporter.api_url", Message: msg})
		}
	}
	if cfg.Reporter.RetryMax < 0 {
		errs = append(errs, ValidationError{Field: "reporter.retry_max", Message: "must not be negative"})
	}

	if cfg.Content.FetchEnabled {
		if cfg.Content.ArchiveURL == "" {
			errs = append(errs, ValidationError{Field: "content.archive_url", Message: "is required when fetch_enabled is true"})
		} else if msg := checkHTTPURL(cfg.Content.ArchiveURL); msg != "" {
			errs = append(errs, ValidationError{Field: "content.archive_url", Message: msg})
		}
		if cfg.Content.FetchRetryMax < 0 {
			errs = append(errs, ValidationError{Field: "content.fetch_retry_max", Message: "must not be negative"})
		}
		if cfg.Content.CacheDir == "" {
			errs = append(errs, ValidationError{Field: "content.cache_dir", Message: "is required when fetch_enabled is true"})
		}
	}
	if cfg.Content.Glob == "" {
		errs = append(errs, ValidationError{Field: "content.glob", Message: "is required"})
	} else if _, err := filepath.Match(cfg.Content.Glob, ""); err != nil {
		errs = append(errs, ValidationError{Field: "content.glob", Message: fmt.Sprintf("bad pattern %q", cfg.Content.Glob)})
	}
	if ds := cfg.Content.DefaultDatastream; ds == "" {
		errs = append(errs, ValidationError{Field: "content.default_datastream", Message: "is required"})
	} else if !filepath.IsAbs(ds) && filepath.Base(ds) != ds {
		errs = append(errs, ValidationError{Field: "content.default_datastream", Message: "must be a file name or an absolute path"})
	}
	if cfg.Content.ResultsDir == "" {
		errs = append(errs, ValidationError{Field: "content.results_dir", Message: "is required"})
	}

	if cfg.Scanner.Binary == "" {
		errs = append(errs, ValidationError{Field: "scanner.binary", Message: "is required"})
	}

	if cfg.Logger.Level != "" && !recognizedLevels[cfg.Logger.Level] {
		errs = append(errs, ValidationError{
			Field:   "logger.level",
			Message: fmt.Sprintf("unrecognized level %q", cfg.Logger.Level),
		})
	}
	if cfg.Logger.Encoding != "" && !recognizedEncodings[cfg.Logger.Encoding] {
		errs = append(errs, ValidationError{
			Field:   "logger.encoding",
			Message: fmt.Sprintf("unrecognized encoding %q (want json or console)", cfg.Logger.Encoding),
		})
	}

	return errs
}

func checkHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}
