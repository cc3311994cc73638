package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultReviewStoreURL = "http://localhost:8001"

	DefaultMaxPhotos        = 5
	DefaultMaxPhotoBytes    = 5 * 1024 * 1024
	DefaultTitleMaxLength   = 100
	DefaultContentMinLength = 20
	DefaultContentMaxLength = 1000
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml on top and
// lets environment variables override any key (review_store.base_url -> REVIEW_STORE_BASE_URL).
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.ReviewStore.AuthToken == "" {
		if val := os.Getenv("REVIEW_STORE_TOKEN"); val != "" {
			cfg.ReviewStore.AuthToken = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Notifications.SNS.TopicARN == "" {
		if val := os.Getenv("REVIEW_EVENTS_TOPIC_ARN"); val != "" {
			cfg.Notifications.SNS.TopicARN = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "review-engine"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.ReviewStore.BaseURL == "" {
		cfg.ReviewStore.BaseURL = DefaultReviewStoreURL
	}
	cfg.ReviewStore.BaseURL = strings.TrimRight(cfg.ReviewStore.BaseURL, "/")
	if cfg.ReviewStore.Timeout == 0 {
		cfg.ReviewStore.Timeout = 15000
	}

	if cfg.Review.MaxPhotos == 0 {
		cfg.Review.MaxPhotos = DefaultMaxPhotos
	}
	if cfg.Review.MaxPhotoBytes == 0 {
		cfg.Review.MaxPhotoBytes = DefaultMaxPhotoBytes
	}
	if cfg.Review.TitleMaxLength == 0 {
		cfg.Review.TitleMaxLength = DefaultTitleMaxLength
	}
	if cfg.Review.ContentMinLength == 0 {
		cfg.Review.ContentMinLength = DefaultContentMinLength
	}
	if cfg.Review.ContentMaxLength == 0 {
		cfg.Review.ContentMaxLength = DefaultContentMaxLength
	}
	if cfg.Review.SummaryCacheTTL == 0 {
		cfg.Review.SummaryCacheTTL = 300
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "reviews"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Notifications.SES.AlertAtOrBelow == 0 {
		cfg.Notifications.SES.AlertAtOrBelow = 2
	}
	if cfg.Notifications.SES.Region == "" {
		cfg.Notifications.SES.Region = cfg.Notifications.SNS.Region
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "log"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if !strings.HasPrefix(cfg.ReviewStore.BaseURL, "http://") && !strings.HasPrefix(cfg.ReviewStore.BaseURL, "https://") {
		return fmt.Errorf("review_store.base_url must be an http(s) URL, got %q", cfg.ReviewStore.BaseURL)
	}

	if cfg.Review.ContentMinLength > cfg.Review.ContentMaxLength {
		return fmt.Errorf("review.content_min_length (%d) exceeds review.content_max_length (%d)",
			cfg.Review.ContentMinLength, cfg.Review.ContentMaxLength)
	}
	if cfg.Review.MaxPhotos < 0 {
		return fmt.Errorf("review.max_photos must not be negative")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	switch cfg.Tracing.Exporter {
	case "log", "none":
	default:
		return fmt.Errorf("tracing.exporter must be \"log\" or \"none\", got %q", cfg.Tracing.Exporter)
	}
	if cfg.Notifications.SES.Enabled && (cfg.Notifications.SES.From == "" || cfg.Notifications.SES.ModerationAddress == "") {
		return fmt.Errorf("notifications.ses.from and moderation_address are required when ses is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}
