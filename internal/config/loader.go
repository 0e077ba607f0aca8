package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultProfile    = "xccdf_org.ssgproject.content_profile_cis"
	DefaultArchiveURL = "https://github.com/ComplianceAsCode/content/releases/download/v0.1.77/scap-security-guide-0.1.77.zip"
	DefaultCacheDir   = "scap-security-guide-0.1.77"
	DefaultGlob       = "ssg-*-ds.xml"
	DefaultDatastream = "ssg-ubuntu2204-ds.xml"
)

// DefaultSystemDirs are the distribution locations for SCAP Security Guide content.
var DefaultSystemDirs = []string{
	"/usr/share/xml/scap/ssg/content",
	"/usr/share/scap-security-guide",
	"/usr/share/xml/scap",
}

// envBindings maps config keys to the environment names the agent has always honoured.
var envBindings = map[string]string{
	"reporter.api_url":      "COMPLIANCE_API_URL",
	"reporter.api_token":    "COMPLIANCE_API_TOKEN",
	"agent.scan_interval":   "SCAN_INTERVAL",
	"agent.default_profile": "DEFAULT_PROFILE",
	"server.port":           "AGENT_PORT",
	"content.dir":           "CONTENT_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.default_profile", DefaultProfile)
	v.SetDefault("agent.scan_interval", "3600")
	v.SetDefault("agent.retry_delay", "60s")
	v.SetDefault("agent.extended_sysinfo", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("reporter.api_url", "")
	v.SetDefault("reporter.api_token", "")
	v.SetDefault("reporter.timeout", "30s")
	v.SetDefault("reporter.retry_max", 3)
	v.SetDefault("reporter.spool_path", "")

	v.SetDefault("content.dir", "./content/")
	v.SetDefault("content.system_dirs", DefaultSystemDirs)
	v.SetDefault("content.cache_dir", DefaultCacheDir)
	v.SetDefault("content.results_dir", "./results")
	v.SetDefault("content.fetch_enabled", true)
	v.SetDefault("content.fetch_retry_max", 3)
	v.SetDefault("content.archive_url", DefaultArchiveURL)
	v.SetDefault("content.glob", DefaultGlob)
	v.SetDefault("content.os_release_path", "/etc/os-release")
	v.SetDefault("content.default_datastream", DefaultDatastream)

	v.SetDefault("scanner.binary", "oscap")
	v.SetDefault("scanner.timeout", "0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path searches
// ./scapagent.yaml and /etc/scapagent/scapagent.yaml; a missing file there is
// not an error, but an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCAPAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "SCAPAGENT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scapagent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/scapagent")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ParseInterval accepts whole seconds or a Go duration string.
// Empty means zero.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative interval %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative interval %s", s)
	}
	return d, nil
}

// ScanInterval returns the parsed scheduling interval (0 = disabled).
func (c *Config) ScanInterval() time.Duration {
	d, _ := ParseInterval(c.Agent.ScanInterval)
	return d
}

// RetryDelay returns the wait after a failed scheduled scan.
func (c *Config) RetryDelay() time.Duration {
	d, err := ParseInterval(c.Agent.RetryDelay)
	if err != nil || d == 0 {
		return time.Minute
	}
	return d
}

// ReporterTimeout returns the per-request timeout for the collector client.
func (c *Config) ReporterTimeout() time.Duration {
	d, err := ParseInterval(c.Reporter.Timeout)
	if err != nil || d == 0 {
		return 30 * time.Second
	}
	return d
}

// ScannerTimeout returns the evaluation time limit (0 = none).
func (c *Config) ScannerTimeout() time.Duration {
	d, _ := ParseInterval(c.Scanner.Timeout)
	return d
}

// ListenAddr is the front end's host:port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SearchRoots returns the content search order: the configured directory,
// the system directories, then the fetch cache.
func (c *Config) SearchRoots() []string {
	roots := make([]string, 0, len(c.Content.SystemDirs)+2)
	if c.Content.Dir != "" {
		roots = append(roots, c.Content.Dir)
	}
	roots = append(roots, c.Content.SystemDirs...)
	if c.Content.CacheDir != "" {
		roots = append(roots, c.Content.CacheDir)
	}
	return roots
}
