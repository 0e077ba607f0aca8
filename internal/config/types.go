package config

// Config is the top-level agent configuration.
type Config struct {
	Agent    Agent    `mapstructure:"agent" yaml:"agent"`
	Server   Server   `mapstructure:"server" yaml:"server"`
	Reporter Reporter `mapstructure:"reporter" yaml:"reporter"`
	Content  Content  `mapstructure:"content" yaml:"content"`
	Scanner  Scanner  `mapstructure:"scanner" yaml:"scanner"`
	Logger   Logger   `mapstructure:"logger" yaml:"logger"`
}

// Agent controls scheduling and scan defaults.
type Agent struct {
	DefaultProfile string `mapstructure:"default_profile" yaml:"default_profile"`
	// ScanInterval is either whole seconds ("3600") or a Go duration ("1h").
	// Zero disables scheduled scanning.
	ScanInterval string `mapstructure:"scan_interval" yaml:"scan_interval"`
	RetryDelay   string `mapstructure:"retry_delay" yaml:"retry_delay"`
	// ExtendedSysInfo adds platform, CPU, memory and disk facts to every
	// result. When false only the hostname is reported.
	ExtendedSysInfo bool `mapstructure:"extended_sysinfo" yaml:"extended_sysinfo"`
}

// Server is the local HTTP front end.
type Server struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Reporter describes the remote collector.
type Reporter struct {
	APIURL    string `mapstructure:"api_url" yaml:"api_url"`
	APIToken  string `mapstructure:"api_token" yaml:"api_token"`
	Timeout   string `mapstructure:"timeout" yaml:"timeout"`
	RetryMax  int    `mapstructure:"retry_max" yaml:"retry_max"`
	SpoolPath string `mapstructure:"spool_path" yaml:"spool_path"`
}

// Content controls where benchmark datastreams are looked up and fetched.
type Content struct {
	Dir               string   `mapstructure:"dir" yaml:"dir"`
	SystemDirs        []string `mapstructure:"system_dirs" yaml:"system_dirs"`
	CacheDir          string   `mapstructure:"cache_dir" yaml:"cache_dir"`
	ResultsDir        string   `mapstructure:"results_dir" yaml:"results_dir"`
	FetchEnabled      bool     `mapstructure:"fetch_enabled" yaml:"fetch_enabled"`
	FetchRetryMax     int      `mapstructure:"fetch_retry_max" yaml:"fetch_retry_max"`
	ArchiveURL        string   `mapstructure:"archive_url" yaml:"archive_url"`
	Glob              string   `mapstructure:"glob" yaml:"glob"`
	OSReleasePath     string   `mapstructure:"os_release_path" yaml:"os_release_path"`
	DefaultDatastream string   `mapstructure:"default_datastream" yaml:"default_datastream"`
}

// Scanner describes the external evaluation tool.
type Scanner struct {
	Binary string `mapstructure:"binary" yaml:"binary"`
	// Timeout bounds a single evaluation. Empty or "0" means no limit.
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// Logger configures the zap logger.
type Logger struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Development bool   `mapstructure:"development" yaml:"development"`
}
