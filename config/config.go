package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default storage settings
	defaultBackend    = "file"
	defaultStorageDir = "data"

	// Default server settings
	defaultListenAddr = ":8080"

	// Default monitoring settings
	defaultMetricsPrefix = "pomod"
	defaultJobName       = "pomod"

	// Default runner settings
	defaultPollInterval = 250 * time.Millisecond

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Config represents the complete application configuration
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Notify     NotifyConfig     `yaml:"notify"`
	Reminders  []Reminder       `yaml:"reminders"`
	Logging    LoggingConfig    `yaml:"logging"`

	// PollInterval is how often the runner reconciles the timer against
	// the wall clock.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	// Backend is one of: memory, file, sqlite, redis
	Backend string `yaml:"backend"`

	// Dir is the data directory for the file backend
	Dir string `yaml:"dir"`

	// Path is the database file for the sqlite backend
	Path string `yaml:"path"`

	// Watch enables filesystem change detection on the file backend,
	// so edits made by another process are picked up between polls
	Watch bool `yaml:"watch"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ServerConfig holds HTTP server listener settings
type ServerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig enables TLS when both files are set
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// Mode is scrape, push, or empty to disable metrics
	Mode               string `yaml:"mode"`
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// AnalyticsConfig holds anonymous usage reporting settings
type AnalyticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`

	// Endpoint overrides the PostHog ingestion host, empty uses the
	// library default
	Endpoint string `yaml:"endpoint"`
}

// NotifyConfig holds completion and reminder delivery settings
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`

	// ChimeCommand is run through the shell when a session completes
	ChimeCommand string `yaml:"chime_command"`
}

// Reminder defines a recurring notification on a cron schedule
type Reminder struct {
	// A standard 5-field cron spec
	Cron string `yaml:"cron"`
	// The notification body to deliver
	Message string `yaml:"message"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for the sqlite backend")
	}
	if c.Storage.Backend == "redis" && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required for the redis backend")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS requires both cert_file and key_file")
	}
	switch c.Monitoring.Mode {
	case "", "scrape", "push":
	default:
		return fmt.Errorf("unsupported monitoring mode %q", c.Monitoring.Mode)
	}
	if c.Monitoring.Mode == "push" && c.Monitoring.VictoriaMetricsURL == "" {
		return fmt.Errorf("VictoriaMetrics URL is required in push mode")
	}
	if c.Analytics.Enabled && c.Analytics.APIKey == "" {
		return fmt.Errorf("analytics API key is required when analytics is enabled")
	}
	for i, r := range c.Reminders {
		if r.Cron == "" {
			return fmt.Errorf("reminder %d: cron spec is required", i)
		}
		if r.Message == "" {
			return fmt.Errorf("reminder %d: message is required", i)
		}
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultBackend
	}
	if c.Storage.Backend == defaultBackend && c.Storage.Dir == "" {
		c.Storage.Dir = defaultStorageDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultListenAddr
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// Redacted returns a copy of the configuration with secrets masked,
// suitable for serving over HTTP.
func (c *Config) Redacted() Config {
	out := *c
	out.Reminders = append([]Reminder(nil), c.Reminders...)
	if out.Storage.Redis.Password != "" {
		out.Storage.Redis.Password = "REDACTED"
	}
	if out.Analytics.APIKey != "" {
		out.Analytics.APIKey = "REDACTED"
	}
	return out
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
