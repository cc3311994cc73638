package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	ReviewStore   ReviewStoreConfig       `mapstructure:"review_store"`
	Review        ReviewConfig            `mapstructure:"review"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// ReviewStoreConfig points at the external API server that persists reviews.
type ReviewStoreConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	AuthToken string `mapstructure:"auth_token"`
}

// ReviewConfig holds the draft and attachment limits.
type ReviewConfig struct {
	MaxPhotos        int   `mapstructure:"max_photos"`
	MaxPhotoBytes    int64 `mapstructure:"max_photo_bytes"`
	TitleMaxLength   int   `mapstructure:"title_max_length"`
	ContentMinLength int   `mapstructure:"content_min_length"`
	ContentMaxLength int   `mapstructure:"content_max_length"`
	SummaryCacheTTL  int   `mapstructure:"summary_cache_ttl"` // seconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig controls "new review" events sent to reviewees.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	// SES mails the moderation inbox about low ratings.
	SES struct {
		Enabled           bool   `mapstructure:"enabled"`
		Region            string `mapstructure:"region"`
		From              string `mapstructure:"from"`
		ModerationAddress string `mapstructure:"moderation_address"`
		AlertAtOrBelow    int    `mapstructure:"alert_at_or_below"`
	} `mapstructure:"ses"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig selects where finished spans go. Without an exporter spans are sampled but dropped.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"` // "log" or "none"
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StoreTimeout returns the review store timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return GetDuration(c.ReviewStore.Timeout)
}

// SummaryTTL returns how long cached rating summaries stay valid.
func (c *Config) SummaryTTL() time.Duration {
	return time.Duration(c.Review.SummaryCacheTTL) * time.Second
}
