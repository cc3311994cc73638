// internal/models/review.go
package models

import "time"

// ReviewPayload is the body sent to the Review Store on create and update.
type ReviewPayload struct {
	JobID           string         `json:"job_id"`
	RevieweeID      string         `json:"reviewee_id"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	CategoryRatings map[string]int `json:"category_ratings"`
	Photos          []string       `json:"photos"` // data URIs
	WouldRecommend  bool           `json:"would_recommend"`
}

// Review is a persisted review as returned by the Review Store.
type Review struct {
	ID              string         `json:"id"`
	JobID           string         `json:"job_id"`
	ReviewerID      string         `json:"reviewer_id"`
	RevieweeID      string         `json:"reviewee_id"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	CategoryRatings map[string]int `json:"category_ratings,omitempty"`
	Photos          []string       `json:"photos,omitempty"` // store-assigned references
	WouldRecommend  bool           `json:"would_recommend"`
	CreatedAt       time.Time      `json:"created_at"`
}

// RatingSummary is the precomputed aggregate served by GET /api/reviews/summary/{id}.
type RatingSummary struct {
	AverageRating      float64     `json:"average_rating"`
	TotalReviews       int         `json:"total_reviews"`
	RatingDistribution map[int]int `json:"rating_distribution"` // star -> count
}
