// internal/workers/review/summarize-ratings/config.go
package summarizeratings

import (
	"time"

	"servicehub-reviews/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
