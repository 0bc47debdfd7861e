package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Storage: StorageConfig{Backend: "file", Dir: "data"},
		Server:  ServerConfig{Addr: ":8080"},
		Monitoring: MonitoringConfig{
			Mode:               "push",
			VictoriaMetricsURL: "http://vm:8428",
			MetricsPrefix:      "pomod",
			JobName:            "pomod",
		},
		Reminders: []Reminder{
			{Cron: "0 9 * * *", Message: "stand up"},
		},
		PollInterval: 250 * time.Millisecond,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unsupported storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "etcd" },
			wantErr: true,
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "sqlite"
				c.Storage.Path = ""
			},
			wantErr: true,
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Storage.Backend = "redis"
			},
			wantErr: true,
		},
		{
			name: "TLS cert without key",
			mutate: func(c *Config) {
				c.Server.TLS.CertFile = "/etc/pomod/cert.pem"
			},
			wantErr: true,
		},
		{
			name:    "unsupported monitoring mode",
			mutate:  func(c *Config) { c.Monitoring.Mode = "statsd" },
			wantErr: true,
		},
		{
			name: "push mode without VictoriaMetrics URL",
			mutate: func(c *Config) {
				c.Monitoring.Mode = "push"
				c.Monitoring.VictoriaMetricsURL = ""
			},
			wantErr: true,
		},
		{
			name:    "scrape mode needs no URL",
			mutate:  func(c *Config) { c.Monitoring = MonitoringConfig{Mode: "scrape"} },
			wantErr: false,
		},
		{
			name: "analytics enabled without API key",
			mutate: func(c *Config) {
				c.Analytics.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "reminder without message",
			mutate: func(c *Config) {
				c.Reminders = []Reminder{{Cron: "0 9 * * *"}}
			},
			wantErr: true,
		},
		{
			name: "reminder without cron spec",
			mutate: func(c *Config) {
				c.Reminders = []Reminder{{Message: "stand up"}}
			},
			wantErr: true,
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.PollInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero poll interval left to defaulting",
			mutate:  func(c *Config) { c.PollInterval = 0 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_NegativePollIntervalMessage(t *testing.T) {
	cfg := validConfig()
	cfg.PollInterval = -time.Second
	err := cfg.Validate()
	assert.ErrorContains(t, err, "must not be negative")
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.Storage.Backend != "file" {
		t.Errorf("Backend default = %v, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != "data" {
		t.Errorf("Dir default = %v, want data", cfg.Storage.Dir)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr default = %v, want :8080", cfg.Server.Addr)
	}
	if cfg.Monitoring.MetricsPrefix != "pomod" {
		t.Errorf("MetricsPrefix default = %v, want pomod", cfg.Monitoring.MetricsPrefix)
	}
	if cfg.Monitoring.JobName != "pomod" {
		t.Errorf("JobName default = %v, want pomod", cfg.Monitoring.JobName)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval default = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format default = %v, want json", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Logging.Output default = %v, want stdout", cfg.Logging.Output)
	}
}

func TestConfig_SetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Storage:      StorageConfig{Backend: "sqlite", Path: "/var/lib/pomod/pomod.db"},
		PollInterval: time.Second,
	}
	cfg.SetDefaults()
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %v, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != "" {
		t.Errorf("Dir = %v, want empty for non-file backend", cfg.Storage.Dir)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
}

func TestLoadConfig(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "pomod_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := `storage:
  backend: file
  dir: /var/lib/pomod
server:
  addr: 127.0.0.1:9090
monitoring:
  mode: push
  victoriametrics_url: http://vm:8428
notify:
  webhook_url: http://localhost:9000/hook
  chime_command: paplay /usr/share/sounds/bell.oga
reminders:
  - cron: "0 9 * * *"
    message: drink water
  - cron: "30 17 * * 1-5"
    message: wrap up for the day
poll_interval: 500ms
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %v, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != "/var/lib/pomod" {
		t.Errorf("Storage.Dir = %v, want /var/lib/pomod", cfg.Storage.Dir)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("Server.Addr = %v, want 127.0.0.1:9090", cfg.Server.Addr)
	}
	if cfg.Monitoring.VictoriaMetricsURL != "http://vm:8428" {
		t.Errorf("VictoriaMetricsURL = %v, want http://vm:8428", cfg.Monitoring.VictoriaMetricsURL)
	}
	if cfg.Notify.WebhookURL != "http://localhost:9000/hook" {
		t.Errorf("Notify.WebhookURL = %v, want http://localhost:9000/hook", cfg.Notify.WebhookURL)
	}
	if cfg.Notify.ChimeCommand != "paplay /usr/share/sounds/bell.oga" {
		t.Errorf("Notify.ChimeCommand = %v", cfg.Notify.ChimeCommand)
	}
	if len(cfg.Reminders) != 2 {
		t.Fatalf("len(Reminders) = %v, want 2", len(cfg.Reminders))
	}
	if cfg.Reminders[0].Cron != "0 9 * * *" || cfg.Reminders[0].Message != "drink water" {
		t.Errorf("Reminders[0] = %+v", cfg.Reminders[0])
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}

	// Defaults fill the sections the file omits.
	if cfg.Monitoring.MetricsPrefix != "pomod" {
		t.Errorf("MetricsPrefix = %v, want pomod", cfg.Monitoring.MetricsPrefix)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
}

func TestLoadConfig_TimeStrings(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		expected time.Duration
	}{
		{"250ms", "250ms", 250 * time.Millisecond},
		{"1s", "1s", time.Second},
		{"500ms", "500ms", 500 * time.Millisecond},
		{"2s", "2s", 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpfile, err := os.CreateTemp("", "pomod_config_test.yaml")
			if err != nil {
				t.Fatalf("failed to create temp file: %v", err)
			}
			defer os.Remove(tmpfile.Name())

			content := fmt.Sprintf(`storage:
  backend: memory
poll_interval: %s
`, tt.interval)

			if _, err := tmpfile.Write([]byte(content)); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			tmpfile.Close()

			cfg, err := LoadConfig(tmpfile.Name())
			if err != nil {
				t.Fatalf("LoadConfig() error = %v, want nil", err)
			}

			if cfg.PollInterval != tt.expected {
				t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, tt.expected)
			}
		})
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "pomod_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := `storage:
  backend: redis
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	_, err = LoadConfig(tmpfile.Name())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis addr")
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "redis"
	cfg.Storage.Redis = RedisConfig{Addr: "localhost:6379", Password: "hunter2", Prefix: "pomod"}
	cfg.Analytics = AnalyticsConfig{Enabled: true, APIKey: "phc_secret"}

	redacted := cfg.Redacted()

	assert.Equal(t, "REDACTED", redacted.Storage.Redis.Password)
	assert.Equal(t, "REDACTED", redacted.Analytics.APIKey)

	// Non-secret fields survive.
	assert.Equal(t, "localhost:6379", redacted.Storage.Redis.Addr)
	assert.Equal(t, cfg.Reminders, redacted.Reminders)

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password)
	assert.Equal(t, "phc_secret", cfg.Analytics.APIKey)
}

func TestConfig_Redacted_LeavesEmptySecretsEmpty(t *testing.T) {
	cfg := validConfig()
	redacted := cfg.Redacted()
	assert.Empty(t, redacted.Storage.Redis.Password)
	assert.Empty(t, redacted.Analytics.APIKey)
}
