package submitreview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"servicehub-reviews/internal/common/database"
	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/metrics"
	"servicehub-reviews/internal/common/observability"
	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/draft"
	"servicehub-reviews/internal/review/photo"
	"servicehub-reviews/internal/review/submission"
)

const (
	TaskType = "submit-review"
)

type AuditRecorder interface {
	Record(ctx context.Context, rec database.SubmissionRecord) (int64, error)
}

type ReviewIndexer interface {
	IndexReview(ctx context.Context, r models.Review) error
}

type SummaryInvalidator interface {
	Invalidate(ctx context.Context, revieweeID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.ReviewEvent) (string, error)
}

// Dependencies are the collaborators of the handler. Only Store is required.
type Dependencies struct {
	Store         submission.Store
	Audit         AuditRecorder
	Index         ReviewIndexer
	Cache         SummaryInvalidator
	Events        EventPublisher
	Observability *observability.Observability
}

type Handler struct {
	config     *Config
	deps       Dependencies
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		deps:       deps,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.deps.Observability.StartSpan(ctx, TaskType, attribute.Int64("jobKey", job.Key))

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		perr := errors.NewPayloadSchemaError(fmt.Sprintf("parse input: %v", err))
		observability.EndSpan(span, perr)
		h.failJob(ctx, client, job, perr, start)
		return
	}

	output, err := h.execute(ctx, job.Key, &input)
	observability.EndSpan(span, err)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, "success")
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), "success")
}

func (h *Handler) execute(ctx context.Context, jobKey int64, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewPayloadSchemaError("input cannot be nil")
	}

	missing := map[string]string{}
	if strings.TrimSpace(input.JobID) == "" {
		missing["jobId"] = "jobId is required"
	}
	if strings.TrimSpace(input.RevieweeID) == "" {
		missing["revieweeId"] = "revieweeId is required"
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationFailedError(missing)
	}

	toasts := &toastRecorder{logger: h.logger}
	files, refs, err := splitPhotos(input.Photos, input.ReviewID != "")
	if err != nil {
		return nil, err
	}

	photos := photo.NewSet(h.config.Photos, toasts, h.logger)
	d, err := h.buildDraft(input, photos, refs)
	if err != nil {
		h.audit(ctx, jobKey, input, d, nil, err, 0)
		return nil, err
	}

	added := photos.Add(ctx, files...)
	photos.Wait()

	wf := submission.New(d, submission.Target{JobID: input.JobID, RevieweeID: input.RevieweeID},
		h.deps.Store, toasts, submission.Callbacks{}, h.logger)

	photoCount := photos.Len()
	review, err := wf.Submit(ctx)
	h.audit(ctx, jobKey, input, d, review, err, photoCount)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID == "" {
		review.ReviewerID = input.ReviewerID
	}

	status := StatusCreated
	if d.IsEdit() {
		status = StatusUpdated
	}

	output := &Output{
		ReviewID:      review.ID,
		Status:        status,
		PhotoCount:    photoCount,
		DroppedPhotos: added.Dropped,
		Toast:         toasts.last(),
	}
	if !review.CreatedAt.IsZero() {
		output.CreatedAt = review.CreatedAt.UTC().Format(time.RFC3339)
	}
	for _, r := range added.Rejected {
		output.RejectedPhotos = append(output.RejectedPhotos, RejectedPhoto{
			Name:    r.File,
			Code:    string(r.Err.Code),
			Message: r.Err.Details,
		})
	}

	h.afterSubmit(ctx, review, status, output)
	return output, nil
}

// buildDraft loads the job variables into a draft. Stored photo references are only
// accepted in edit mode and are kept ahead of new uploads.
func (h *Handler) buildDraft(input *Input, photos *photo.Set, refs []string) (*draft.Draft, error) {
	var (
		d   *draft.Draft
		err error
	)
	if input.ReviewID != "" {
		d, err = draft.FromReview(&models.Review{
			ID:              input.ReviewID,
			JobID:           input.JobID,
			ReviewerID:      input.ReviewerID,
			RevieweeID:      input.RevieweeID,
			Rating:          input.Rating,
			Title:           input.Title,
			Content:         input.Content,
			CategoryRatings: input.CategoryRatings,
			Photos:          refs,
			WouldRecommend:  input.WouldRecommend == nil || *input.WouldRecommend,
		}, h.config.Limits, photos)
	} else {
		d = draft.New(h.config.Limits, photos)
		d.SetRating(input.Rating)
		d.SetTitle(input.Title)
		d.SetContent(input.Content)
		if input.WouldRecommend != nil {
			d.SetWouldRecommend(*input.WouldRecommend)
		}
		err = d.LoadCategoryRatings(input.CategoryRatings)
	}
	if err != nil {
		return d, errors.NewValidationFailedError(map[string]string{
			draft.FieldCategoryRatings: err.Error(),
		})
	}
	return d, nil
}

func splitPhotos(uris []string, editMode bool) ([]photo.File, []string, error) {
	var (
		files []photo.File
		refs  []string
	)
	for i, uri := range uris {
		name := fmt.Sprintf("photo-%d", i+1)
		if !strings.HasPrefix(uri, "data:") {
			if !editMode {
				return nil, nil, errors.NewDecodeFailedError(name, fmt.Errorf("not a data URI"))
			}
			refs = append(refs, uri)
			continue
		}
		f, err := photo.ParseDataURI(name, uri)
		if err != nil {
			return nil, nil, errors.NewDecodeFailedError(name, err)
		}
		files = append(files, f)
	}
	return files, refs, nil
}

// afterSubmit runs the side effects of a stored review. None of them fail the job:
// the review already exists and a retry would submit it twice.
func (h *Handler) afterSubmit(ctx context.Context, review *models.Review, status string, output *Output) {
	if h.deps.Index != nil {
		if err := h.deps.Index.IndexReview(ctx, *review); err != nil {
			h.logger.Warn("review indexing failed", map[string]interface{}{
				"reviewId": review.ID,
				"error":    err,
			})
		}
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Invalidate(ctx, review.RevieweeID); err != nil {
			h.logger.Warn("summary cache invalidation failed", map[string]interface{}{
				"revieweeId": review.RevieweeID,
				"error":      err,
			})
		}
	}

	if h.deps.Events == nil {
		return
	}
	eventType := models.ReviewEventCreated
	if status == StatusUpdated {
		eventType = models.ReviewEventUpdated
	}
	event := models.ReviewEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		ReviewID:   review.ID,
		JobID:      review.JobID,
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := h.deps.Events.Publish(ctx, event); err != nil {
		h.logger.Warn("review event not published", map[string]interface{}{
			"reviewId": review.ID,
			"error":    err,
		})
		return
	}
	output.EventID = event.EventID
}

func (h *Handler) audit(ctx context.Context, jobKey int64, input *Input, d *draft.Draft, review *models.Review, submitErr error, photoCount int) {
	if h.deps.Audit == nil {
		return
	}

	rec := database.SubmissionRecord{
		JobKey:     jobKey,
		JobID:      input.JobID,
		ReviewerID: input.ReviewerID,
		RevieweeID: input.RevieweeID,
		Mode:       "create",
		Outcome:    database.OutcomeSucceeded,
		PhotoCount: photoCount,
	}
	if d != nil && d.IsEdit() {
		rec.Mode = "update"
	}
	if review != nil {
		rec.ReviewID = review.ID
	} else if input.ReviewID != "" {
		rec.ReviewID = input.ReviewID
	}

	if submitErr != nil {
		stdErr := errors.Normalize(submitErr)
		rec.ErrorCode = string(stdErr.Code)
		rec.Outcome = database.OutcomeFailed
		if stdErr.Code == errors.ErrCodeValidationFailed {
			rec.Outcome = database.OutcomeRejected
			rec.FieldErrors = make(map[string]string, len(stdErr.Metadata))
			for k, v := range stdErr.Metadata {
				rec.FieldErrors[k] = fmt.Sprint(v)
			}
		}
	}

	if _, err := h.deps.Audit.Record(ctx, rec); err != nil {
		h.logger.Warn("submission audit write failed", map[string]interface{}{
			"jobId": input.JobID,
			"error": err,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(errors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, "failed")
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, 0, input)
}

// toastRecorder collects the user-facing messages raised while processing one job.
type toastRecorder struct {
	mu     sync.Mutex
	toasts []models.Toast
	logger logger.Logger
}

func (r *toastRecorder) Notify(t models.Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
	r.logger.Debug("toast", map[string]interface{}{
		"title":   t.Title,
		"variant": t.Variant,
	})
}

func (r *toastRecorder) last() *models.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return nil
	}
	t := r.toasts[len(r.toasts)-1]
	return &t
}
