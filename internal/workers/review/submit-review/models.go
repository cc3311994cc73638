// internal/workers/review/submit-review/models.go
package submitreview

import "servicehub-reviews/internal/models"

// Input is the job variable set for one review submission.
// ReviewID switches the worker to edit mode.
type Input struct {
	JobID           string         `json:"jobId"`
	ReviewerID      string         `json:"reviewerId"`
	RevieweeID      string         `json:"revieweeId"`
	ReviewID        string         `json:"reviewId,omitempty"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	CategoryRatings map[string]int `json:"categoryRatings,omitempty"`
	Photos          []string       `json:"photos,omitempty"` // data URIs, or stored references in edit mode
	WouldRecommend  *bool          `json:"wouldRecommend,omitempty"`
}

type Output struct {
	ReviewID       string          `json:"reviewId"`
	Status         string          `json:"status"` // "created" or "updated"
	CreatedAt      string          `json:"createdAt"`
	PhotoCount     int             `json:"photoCount"`
	RejectedPhotos []RejectedPhoto `json:"rejectedPhotos,omitempty"`
	DroppedPhotos  int             `json:"droppedPhotos,omitempty"`
	Toast          *models.Toast   `json:"toast,omitempty"`
	EventID        string          `json:"eventId,omitempty"`
}

type RejectedPhoto struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
)
