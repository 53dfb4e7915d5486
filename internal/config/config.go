// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Ingestor  IngestorConfig  `mapstructure:"ingestor"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	ETL       ETLConfig       `mapstructure:"etl"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Records   RecordsConfig   `mapstructure:"records"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
	APIKey      string `mapstructure:"api_key"`
}

// SchedulerConfig governs the daily outbound request.
type SchedulerConfig struct {
	PartnerAPIURL string  `mapstructure:"partner_api_url"`
	TriggerHour   int     `mapstructure:"trigger_hour"`
	TriggerMinute int     `mapstructure:"trigger_minute"`
	TickSeconds   int     `mapstructure:"tick_seconds"`
	RequestRPS    float64 `mapstructure:"request_rps"`
	RequestBurst  int     `mapstructure:"request_burst"`
}

// WebhookConfig maps partner shared secrets to partner IDs.
type WebhookConfig struct {
	PartnerSecrets map[string]string `mapstructure:"partner_secrets"`
}

// IngestorConfig sets blob placement for extracted files.
type IngestorConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// HTTPConfig configures archive fetch behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// ETLConfig governs the worker pool.
type ETLConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	QueueDepth  int `mapstructure:"queue_depth"`
}

// MonitorConfig governs the health monitor.
type MonitorConfig struct {
	ErrorThreshold  int `mapstructure:"error_threshold"`
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// StorageConfig selects the blob store provider.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // memory | gcs
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// RecordsConfig selects the persisted-record store provider.
type RecordsConfig struct {
	Provider string `mapstructure:"provider"` // memory | postgres
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// PubSubConfig holds metadata for publish-subscribe export of events and
// alerts. Empty project ID disables Pub/Sub entirely.
type PubSubConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	AlertTopic string `mapstructure:"alert_topic"`
	EventTopic string `mapstructure:"event_topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scheduler.trigger_hour", 16)
	v.SetDefault("scheduler.trigger_minute", 0)
	v.SetDefault("scheduler.tick_seconds", 60)
	v.SetDefault("scheduler.request_rps", 1)
	v.SetDefault("scheduler.request_burst", 1)
	v.SetDefault("ingestor.bucket", "findata-exports")
	v.SetDefault("ingestor.prefix", "findata")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("etl.concurrency", 4)
	v.SetDefault("etl.queue_depth", 64)
	v.SetDefault("monitor.error_threshold", 3)
	v.SetDefault("monitor.interval_seconds", 30)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("records.provider", "memory")
	v.SetDefault("records.table", "client_records")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scheduler.TriggerHour < 0 || c.Scheduler.TriggerHour > 23 {
		return fmt.Errorf("scheduler.trigger_hour must be in [0, 23]")
	}
	if c.Scheduler.TriggerMinute < 0 || c.Scheduler.TriggerMinute > 59 {
		return fmt.Errorf("scheduler.trigger_minute must be in [0, 59]")
	}
	if c.Scheduler.TickSeconds <= 0 {
		return fmt.Errorf("scheduler.tick_seconds must be > 0")
	}
	if c.ETL.Concurrency <= 0 {
		return fmt.Errorf("etl.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Monitor.ErrorThreshold < 0 {
		return fmt.Errorf("monitor.error_threshold must be >= 0")
	}
	if c.Server.AuthEnabled && c.Server.APIKey == "" {
		return fmt.Errorf("server.api_key must be set when auth is enabled")
	}
	switch c.Storage.Provider {
	case "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	switch c.Records.Provider {
	case "memory":
	case "postgres":
		if c.Records.DSN == "" {
			return fmt.Errorf("records.dsn must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown records provider %q", c.Records.Provider)
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// TickInterval converts the scheduler tick config into a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickSeconds) * time.Second
}

// MonitorInterval converts the monitor interval config into a duration.
func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}
