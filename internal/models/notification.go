// internal/models/notification.go
package models

// Toast is a fire-and-forget user-facing message.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"` // "default" or "destructive"
}

const (
	ToastVariantDefault     = "default"
	ToastVariantDestructive = "destructive"
)

// ReviewEvent is published to reviewees when a review is written about them.
type ReviewEvent struct {
	EventID    string `json:"eventId"`
	Type       string `json:"type"` // "review.created", "review.updated"
	ReviewID   string `json:"reviewId"`
	JobID      string `json:"jobId"`
	ReviewerID string `json:"reviewerId"`
	RevieweeID string `json:"revieweeId"`
	Rating     int    `json:"rating"`
	OccurredAt string `json:"occurredAt"`
}

const (
	ReviewEventCreated = "review.created"
	ReviewEventUpdated = "review.updated"
)
