// internal/workers/review/submit-review/config.go
package submitreview

import (
	"time"

	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/review/draft"
	"servicehub-reviews/internal/review/photo"
)

type Config struct {
	Timeout time.Duration
	Limits  draft.Limits
	Photos  photo.Config
}

// LoadConfig derives the worker settings from the shared application config.
func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout: config.GetDuration(wcfg.Timeout),
		Limits: draft.Limits{
			TitleMaxLength:   cfg.Review.TitleMaxLength,
			ContentMinLength: cfg.Review.ContentMinLength,
			ContentMaxLength: cfg.Review.ContentMaxLength,
		},
		Photos: photo.Config{
			MaxPhotos: cfg.Review.MaxPhotos,
			MaxBytes:  cfg.Review.MaxPhotoBytes,
		},
	}
}
