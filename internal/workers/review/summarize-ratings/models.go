// internal/workers/review/summarize-ratings/models.go
package summarizeratings

import "servicehub-reviews/internal/review/aggregate"

type Input struct {
	RevieweeID string `json:"revieweeId"`
	// IncludeCategories also computes per-category averages from the raw reviews.
	IncludeCategories bool `json:"includeCategories,omitempty"`
}

type Output struct {
	AverageRating    float64            `json:"averageRating"`
	AverageText      string             `json:"averageText"`
	TotalReviews     int                `json:"totalReviews"`
	Label            string             `json:"label"`
	Bars             []aggregate.Bar    `json:"bars"`
	Source           string             `json:"source"`
	CategoryAverages map[string]float64 `json:"categoryAverages,omitempty"`
	RecommendPercent *float64           `json:"recommendPercent,omitempty"`
}

// Summary sources, in lookup order.
const (
	SourceCache = "cache"
	SourceStore = "store"
	SourceIndex = "index"
)
