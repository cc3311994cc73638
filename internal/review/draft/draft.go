// Package draft holds an in-progress review and its submit-time validation rules.
package draft

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/metrics"
	"servicehub-reviews/internal/common/validation"
	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/category"
	"servicehub-reviews/internal/review/photo"
	"servicehub-reviews/internal/review/rating"
)

const (
	FieldRating          = "rating"
	FieldTitle           = "title"
	FieldContent         = "content"
	FieldCategoryRatings = "category_ratings"
)

// CategoryField is the error key for one category rating.
func CategoryField(c category.Category) string {
	return FieldCategoryRatings + "." + string(c)
}

type Limits struct {
	TitleMaxLength   int
	ContentMinLength int
	ContentMaxLength int
}

func DefaultLimits() Limits {
	return Limits{TitleMaxLength: 100, ContentMinLength: 20, ContentMaxLength: 1000}
}

// Draft is a review under construction. It is owned by a single workflow.
type Draft struct {
	mu             sync.Mutex
	limits         Limits
	reviewID       string
	rating         int
	title          string
	content        string
	wouldRecommend bool
	consumed       bool

	ratingWidget *rating.Widget
	categories   *category.Set
	photos       *photo.Set
	errors       *validation.ValidationResult
}

// New creates an empty draft. Photos may be nil when the caller has no attachments.
func New(limits Limits, photos *photo.Set) *Draft {
	if limits.TitleMaxLength <= 0 || limits.ContentMaxLength <= 0 {
		limits = DefaultLimits()
	}
	if photos == nil {
		photos = photo.NewSet(photo.Config{}, nil, nil)
	}
	d := &Draft{
		limits:         limits,
		wouldRecommend: true,
		photos:         photos,
		errors:         validation.NewResult(),
	}
	d.ratingWidget = rating.NewWidget(rating.Unset, true, func(r rating.Rating) {
		d.SetRating(int(r))
	})
	d.categories = category.NewSet(func(c category.Category, _ rating.Rating) {
		d.ClearError(CategoryField(c))
	})
	return d
}

// FromReview builds an edit-mode draft pre-populated from a persisted review.
func FromReview(review *models.Review, limits Limits, photos *photo.Set) (*Draft, error) {
	d := New(limits, photos)
	d.reviewID = review.ID
	d.rating = review.Rating
	d.title = review.Title
	d.content = review.Content
	d.wouldRecommend = review.WouldRecommend

	if rating.Rating(review.Rating).Valid() {
		d.ratingWidget.Sync(rating.Rating(review.Rating))
	}
	d.photos.Preload(review.Photos)
	if err := d.categories.Load(review.CategoryRatings); err != nil {
		return d, err
	}
	return d, nil
}

// IsEdit reports whether submitting this draft updates an existing review.
func (d *Draft) IsEdit() bool { return d.reviewID != "" }

func (d *Draft) ReviewID() string { return d.reviewID }

// RatingWidget is the interactive star row bound to the overall rating.
func (d *Draft) RatingWidget() *rating.Widget { return d.ratingWidget }

func (d *Draft) Categories() *category.Set { return d.categories }

func (d *Draft) Photos() *photo.Set { return d.photos }

// SetRating stores v as given; out-of-range values are reported by Validate.
func (d *Draft) SetRating(v int) {
	d.mu.Lock()
	d.rating = v
	d.errors.Clear(FieldRating)
	d.mu.Unlock()

	if r := rating.Rating(v); r == rating.Unset || r.Valid() {
		d.ratingWidget.Sync(r)
	}
}

func (d *Draft) Rating() rating.Rating {
	d.mu.Lock()
	defer d.mu.Unlock()
	return rating.Rating(d.rating)
}

func (d *Draft) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
	d.errors.Clear(FieldTitle)
}

func (d *Draft) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

func (d *Draft) SetContent(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
	d.errors.Clear(FieldContent)
}

func (d *Draft) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

func (d *Draft) SetWouldRecommend(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wouldRecommend = v
}

func (d *Draft) WouldRecommend() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wouldRecommend
}

// SetCategoryRating commits a category value from the interactive path.
func (d *Draft) SetCategoryRating(key string, v int) error {
	c, err := category.Parse(key)
	if err != nil {
		return err
	}
	return d.categories.Set(c, v)
}

// LoadCategoryRatings replaces all category values from an untrusted source.
func (d *Draft) LoadCategoryRatings(values map[string]int) error {
	d.mu.Lock()
	for _, c := range category.All {
		d.errors.Clear(CategoryField(c))
	}
	d.mu.Unlock()
	return d.categories.Load(values)
}

// Errors returns the errors surfaced by the last Validate, minus fields edited since.
func (d *Draft) Errors() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors.FieldErrors()
}

// ClearError drops a surfaced error as soon as the user edits that field.
func (d *Draft) ClearError(field string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors.Clear(field)
}

// Validate runs every rule once. Rules short-circuit per field.
func (d *Draft) Validate() *validation.ValidationResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	vr := validation.NewResult()
	fail := func(field string, code errors.ErrorCode, msg string) {
		if vr.Add(field, string(code), msg) {
			metrics.ReviewValidationFailures.WithLabelValues(field, string(code)).Inc()
		}
	}

	switch r := rating.Rating(d.rating); {
	case r == rating.Unset:
		fail(FieldRating, errors.ErrCodeRatingRequired, "Please select a rating")
	case !r.Valid():
		fail(FieldRating, errors.ErrCodeRatingOutOfRange, "Rating must be between 1 and 5")
	}

	title := strings.TrimSpace(d.title)
	switch {
	case title == "":
		fail(FieldTitle, errors.ErrCodeTitleRequired, "Title is required")
	case utf8.RuneCountInString(title) > d.limits.TitleMaxLength:
		fail(FieldTitle, errors.ErrCodeTitleTooLong,
			fmt.Sprintf("Title must be %d characters or less", d.limits.TitleMaxLength))
	}

	content := strings.TrimSpace(d.content)
	n := utf8.RuneCountInString(content)
	switch {
	case content == "":
		fail(FieldContent, errors.ErrCodeContentRequired, "Review content is required")
	case n < d.limits.ContentMinLength:
		fail(FieldContent, errors.ErrCodeContentTooShort,
			fmt.Sprintf("Review must be at least %d characters", d.limits.ContentMinLength))
	case n > d.limits.ContentMaxLength:
		fail(FieldContent, errors.ErrCodeContentTooLong,
			fmt.Sprintf("Review must be %d characters or less", d.limits.ContentMaxLength))
	}

	for _, c := range d.categories.Invalid() {
		fail(CategoryField(c), errors.ErrCodeInvalidCategory,
			fmt.Sprintf("%s rating must be between 1 and 5", c.Label()))
	}

	d.errors = vr
	return &validation.ValidationResult{Valid: vr.Valid, Errors: append([]validation.ValidationError(nil), vr.Errors...)}
}

// Payload builds the wire body for the Review Store. Title and content are sent trimmed,
// the same form Validate measured.
func (d *Draft) Payload(jobID, revieweeID string) models.ReviewPayload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.ReviewPayload{
		JobID:           jobID,
		RevieweeID:      revieweeID,
		Rating:          d.rating,
		Title:           strings.TrimSpace(d.title),
		Content:         strings.TrimSpace(d.content),
		CategoryRatings: d.categories.Map(),
		Photos:          d.photos.DataURIs(),
		WouldRecommend:  d.wouldRecommend,
	}
}

// Consume marks the draft as handed over to the store and releases its photos.
func (d *Draft) Consume() {
	d.mu.Lock()
	d.consumed = true
	d.mu.Unlock()
	d.photos.Discard()
}

func (d *Draft) Consumed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.consumed
}
