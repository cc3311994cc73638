// Package submission drives a review draft through validation and the Review Store.
package submission

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/metrics"
	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/draft"
)

const (
	FallbackFailureMessage = "Failed to submit review. Please try again."

	modeCreate = "create"
	modeUpdate = "update"
)

var (
	ErrSubmissionInFlight = stderrors.New("SUBMISSION_IN_FLIGHT")
	ErrDraftConsumed      = stderrors.New("DRAFT_CONSUMED")
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Store is the remote Review Store.
type Store interface {
	Create(ctx context.Context, payload models.ReviewPayload) (*models.Review, error)
	Update(ctx context.Context, reviewID string, payload models.ReviewPayload) (*models.Review, error)
}

// Notifier is the toast sink. Calls are fire-and-forget.
type Notifier interface {
	Notify(models.Toast)
}

type Callbacks struct {
	OnSuccess func(*models.Review)
	OnFailure func(error)
}

// Target identifies the job and the user being reviewed.
type Target struct {
	JobID      string
	RevieweeID string
}

// Workflow owns one draft. At most one submission is in flight at a time.
type Workflow struct {
	mu       sync.Mutex
	state    State
	detached bool

	draft     *draft.Draft
	target    Target
	store     Store
	notifier  Notifier
	callbacks Callbacks
	logger    logger.Logger
}

func New(d *draft.Draft, target Target, store Store, notifier Notifier, callbacks Callbacks, log logger.Logger) *Workflow {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	mode := modeCreate
	if d.IsEdit() {
		mode = modeUpdate
	}
	return &Workflow{
		draft:     d,
		target:    target,
		store:     store,
		notifier:  notifier,
		callbacks: callbacks,
		logger: log.WithFields(map[string]interface{}{
			"jobId":      target.JobID,
			"revieweeId": target.RevieweeID,
			"mode":       mode,
		}),
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Draft() *draft.Draft { return w.draft }

// Detach marks the owner as gone. Completions arriving afterwards skip callbacks and toasts.
func (w *Workflow) Detach() {
	w.mu.Lock()
	w.detached = true
	w.mu.Unlock()
}

func (w *Workflow) transition(to State) {
	w.mu.Lock()
	from := w.state
	w.state = to
	w.mu.Unlock()

	w.logger.Debug("submission state changed", map[string]interface{}{
		"from": from.String(),
		"to":   to.String(),
	})
}

// Submit validates the draft and, if valid, sends it to the store. A call made while another
// submission is validating or in flight returns ErrSubmissionInFlight without side effects.
func (w *Workflow) Submit(ctx context.Context) (*models.Review, error) {
	w.mu.Lock()
	if w.state == StateValidating || w.state == StateSubmitting {
		w.mu.Unlock()
		w.logger.Debug("submit ignored, submission in flight", nil)
		return nil, ErrSubmissionInFlight
	}
	if w.draft.Consumed() {
		w.mu.Unlock()
		return nil, ErrDraftConsumed
	}
	w.state = StateValidating
	w.mu.Unlock()

	mode := modeCreate
	if w.draft.IsEdit() {
		mode = modeUpdate
	}

	vr := w.draft.Validate()
	if !vr.Valid {
		metrics.ReviewSubmissions.WithLabelValues(mode, "invalid").Inc()
		w.logger.Info("review draft rejected", map[string]interface{}{
			"errors": vr.GetErrorMessages(),
		})
		w.transition(StateIdle)
		w.notify(models.Toast{
			Title:       "Please fix the errors",
			Description: "Check the form for validation errors and try again.",
			Variant:     models.ToastVariantDestructive,
		})
		return nil, errors.NewValidationFailedError(vr.FieldErrors())
	}

	payload := w.draft.Payload(w.target.JobID, w.target.RevieweeID)
	w.transition(StateSubmitting)

	start := time.Now()
	var (
		review *models.Review
		err    error
	)
	if mode == modeUpdate {
		review, err = w.store.Update(ctx, w.draft.ReviewID(), payload)
	} else {
		review, err = w.store.Create(ctx, payload)
	}
	metrics.ReviewSubmissionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues(mode, "failed").Inc()
		w.transition(StateFailed)
		w.logger.Error("review submission failed", map[string]interface{}{
			"error":      err,
			"durationMs": time.Since(start).Milliseconds(),
		})
		w.notify(models.Toast{
			Title:       "Error",
			Description: FailureMessage(err),
			Variant:     models.ToastVariantDestructive,
		})
		if cb := w.onFailure(); cb != nil {
			cb(err)
		}
		w.transition(StateIdle)
		return nil, err
	}

	metrics.ReviewSubmissions.WithLabelValues(mode, "succeeded").Inc()
	w.transition(StateSucceeded)
	w.draft.Consume()
	w.logger.Info("review submitted", map[string]interface{}{
		"reviewId":   review.ID,
		"durationMs": time.Since(start).Milliseconds(),
	})

	toast := models.Toast{Title: "Review submitted", Description: "Thank you for your feedback!", Variant: models.ToastVariantDefault}
	if mode == modeUpdate {
		toast = models.Toast{Title: "Review updated", Description: "Your changes have been saved.", Variant: models.ToastVariantDefault}
	}
	w.notify(toast)
	if cb := w.onSuccess(); cb != nil {
		cb(review)
	}
	w.transition(StateIdle)
	return review, nil
}

func (w *Workflow) notify(t models.Toast) {
	w.mu.Lock()
	detached := w.detached
	w.mu.Unlock()
	if detached || w.notifier == nil {
		return
	}
	w.notifier.Notify(t)
}

func (w *Workflow) onSuccess() func(*models.Review) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detached {
		return nil
	}
	return w.callbacks.OnSuccess
}

func (w *Workflow) onFailure() func(error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detached {
		return nil
	}
	return w.callbacks.OnFailure
}

// FailureMessage returns the store's detail for a failed submission, or the generic message.
func FailureMessage(err error) string {
	if stdErr, ok := errors.FromError(err); ok && stdErr.Code == errors.ErrCodeSubmissionFailed && stdErr.Details != "" {
		return stdErr.Details
	}
	return FallbackFailureMessage
}
