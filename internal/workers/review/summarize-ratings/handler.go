package summarizeratings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/metrics"
	"servicehub-reviews/internal/common/observability"
	"servicehub-reviews/internal/models"
	"servicehub-reviews/internal/review/aggregate"
)

const (
	TaskType = "summarize-ratings"
)

type SummaryStore interface {
	Summary(ctx context.Context, userID string) (*models.RatingSummary, error)
	ListForUser(ctx context.Context, userID string) ([]models.Review, error)
}

type SummaryCache interface {
	Get(ctx context.Context, revieweeID string) (*models.RatingSummary, bool, error)
	Set(ctx context.Context, revieweeID string, s models.RatingSummary) error
}

type SummaryIndex interface {
	Summary(ctx context.Context, revieweeID string) (*models.RatingSummary, error)
}

// Dependencies of the handler. Store is required; Cache and Index are optional.
type Dependencies struct {
	Store         SummaryStore
	Cache         SummaryCache
	Index         SummaryIndex
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
	err := json.Unmarshal([]byte(job.Variables), &input)
	if err != nil {
		err = errors.NewPayloadSchemaError(fmt.Sprintf("parse input: %v", err))
	}

	var output *Output
	if err == nil {
		output, err = h.execute(ctx, &input)
	}
	observability.EndSpan(span, err)

	status := "success"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errHandler.HandleJobError(context.Background(), client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.completeJob(client, job, output)
	}

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, status)
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.RevieweeID) == "" {
		return nil, errors.NewValidationFailedError(map[string]string{"revieweeId": "revieweeId is required"})
	}

	summary, source, err := h.lookup(ctx, input.RevieweeID)
	if err != nil {
		return nil, err
	}
	metrics.SummaryLookups.WithLabelValues(source).Inc()

	d := aggregate.FromSummary(*summary).Display()
	output := &Output{
		AverageRating: d.Average,
		AverageText:   d.AverageText,
		TotalReviews:  d.Total,
		Label:         d.Label,
		Bars:          d.Bars,
		Source:        source,
	}

	if input.IncludeCategories {
		reviews, err := h.deps.Store.ListForUser(ctx, input.RevieweeID)
		if err != nil {
			// the headline summary is still useful without the breakdown
			h.logger.Warn("category breakdown unavailable", map[string]interface{}{
				"revieweeId": input.RevieweeID,
				"error":      err,
			})
			return output, nil
		}
		agg := aggregate.FromReviews(reviews)
		output.CategoryAverages = make(map[string]float64)
		for c, avg := range agg.CategoryAverages() {
			output.CategoryAverages[string(c)] = avg
		}
		pct := agg.RecommendPercent()
		output.RecommendPercent = &pct
	}

	return output, nil
}

// lookup tries the cache, then the Review Store, then the search index.
// A summary fetched from a backing source is written back to the cache.
func (h *Handler) lookup(ctx context.Context, revieweeID string) (*models.RatingSummary, string, error) {
	if h.deps.Cache != nil {
		s, hit, err := h.deps.Cache.Get(ctx, revieweeID)
		if err != nil {
			h.logger.Warn("summary cache read failed", map[string]interface{}{
				"revieweeId": revieweeID,
				"error":      err,
			})
		}
		if hit {
			return s, SourceCache, nil
		}
	}

	s, storeErr := h.deps.Store.Summary(ctx, revieweeID)
	source := SourceStore
	if storeErr != nil {
		h.logger.Warn("store summary failed", map[string]interface{}{
			"revieweeId": revieweeID,
			"error":      storeErr,
		})
		if h.deps.Index == nil {
			return nil, "", errors.NewSummaryUnavailableError(revieweeID, storeErr)
		}
		var indexErr error
		s, indexErr = h.deps.Index.Summary(ctx, revieweeID)
		if indexErr != nil {
			return nil, "", errors.NewSummaryUnavailableError(revieweeID,
				fmt.Errorf("store: %v; index: %v", storeErr, indexErr))
		}
		source = SourceIndex
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Set(ctx, revieweeID, *s); err != nil {
			h.logger.Warn("summary cache write failed", map[string]interface{}{
				"revieweeId": revieweeID,
				"error":      err,
			})
		}
	}
	return s, source, nil
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
