package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/validation"
	"servicehub-reviews/internal/models"
)

const maxErrorBody = 64 * 1024

// ReviewStoreClient talks to the external API server that persists reviews.
type ReviewStoreClient struct {
	client  *Client
	baseURL string
	logger  logger.Logger
}

type ReviewStoreOptions struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

func NewReviewStoreClient(opts ReviewStoreOptions, log logger.Logger) *ReviewStoreClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	client := NewClient(opts.Timeout).WithHeader("Accept", "application/json")
	if opts.AuthToken != "" {
		client = client.WithHeader("Authorization", "Bearer "+opts.AuthToken)
	}
	return &ReviewStoreClient{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  log.WithFields(map[string]interface{}{"component": "review-store"}),
	}
}

// Create posts a new review. The payload is checked against the store schema first.
func (c *ReviewStoreClient) Create(ctx context.Context, payload models.ReviewPayload) (*models.Review, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}
	var out models.Review
	if err := c.do(ctx, http.MethodPost, "/api/reviews", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ReviewStoreClient) Update(ctx context.Context, reviewID string, payload models.ReviewPayload) (*models.Review, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}
	var out models.Review
	if err := c.do(ctx, http.MethodPut, "/api/reviews/"+url.PathEscape(reviewID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListForUser returns the reviews written about userID.
func (c *ReviewStoreClient) ListForUser(ctx context.Context, userID string) ([]models.Review, error) {
	var out []models.Review
	if err := c.do(ctx, http.MethodGet, "/api/reviews/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewStoreClient) Summary(ctx context.Context, userID string) (*models.RatingSummary, error) {
	var out models.RatingSummary
	if err := c.do(ctx, http.MethodGet, "/api/reviews/summary/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkPayload(payload models.ReviewPayload) error {
	vr, err := validation.ValidatePayload(payload)
	if err != nil {
		return errors.NewPayloadSchemaError(err.Error())
	}
	if !vr.Valid {
		return errors.NewPayloadSchemaError(strings.Join(vr.GetErrorMessages(), "; "))
	}
	return nil
}

func (c *ReviewStoreClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		c.logger.Warn("review store request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err,
		})
		if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return errors.NewStoreTimeoutError(method + " " + path)
		}
		return errors.NewStoreUnavailableError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("review store response", map[string]interface{}{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= 300 {
		detail := readDetail(resp.Body)
		if resp.StatusCode == http.StatusNotFound && method == http.MethodPut {
			return errors.NewReviewNotFoundError(strings.TrimPrefix(path, "/api/reviews/"))
		}
		return errors.NewSubmissionFailedError(resp.StatusCode, detail, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("undecodable review store response", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err,
		})
		return errors.NewSubmissionFailedError(resp.StatusCode, "", false)
	}
	return nil
}

// readDetail extracts the {"detail": "..."} message the store returns on errors.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return detail
	}
	// validation errors come back as a list; keep them verbatim
	return string(body.Detail)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return stderrors.As(err, &te) && te.Timeout()
}
