package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationFailedError(t *testing.T) {
	err := NewValidationFailedError(map[string]string{"title": "Title is required"})

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, "title: Title is required", err.Details)
	assert.Equal(t, "Title is required", err.Metadata["title"])
	assert.Equal(t, "REVIEW_VALIDATION_FAILED: Review validation failed (title: Title is required)", err.Error())
}

func TestNewFileTooLargeError_Details(t *testing.T) {
	err := NewFileTooLargeError("kitchen.jpg", 6*1024*1024, 5*1024*1024)
	assert.Equal(t, "kitchen.jpg is larger than 5MB. Please choose a smaller file.", err.Details)
	assert.Equal(t, "ATTACHMENT", GetErrorCategory(err.Code))
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewStoreTimeoutError("create"))

	assert.True(t, HasCode(wrapped, ErrCodeStoreTimeout))
	assert.False(t, HasCode(wrapped, ErrCodeStoreUnavailable))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeStoreTimeout))
	assert.True(t, stderrors.Is(wrapped, &StandardError{Code: ErrCodeStoreTimeout}))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"field error collapses", &StandardError{Code: ErrCodeTitleTooLong}, "REVIEW_VALIDATION_FAILED", 0},
		{"attachment", NewInvalidFileTypeError("a.gif", "image/gif"), "ATTACHMENT_REJECTED", 0},
		{"store unavailable", NewStoreUnavailableError(stderrors.New("refused")), "SUBMISSION_FAILED", 3},
		{"timeout", NewStoreTimeoutError("update"), "SUBMISSION_FAILED", 2},
		{"non-retryable submission", NewSubmissionFailedError(400, "bad", false), "SUBMISSION_FAILED", 0},
		{"retryable submission", NewSubmissionFailedError(503, "", true), "SUBMISSION_FAILED", 2},
		{"unmapped keeps code", NewSummaryUnavailableError("u1", stderrors.New("x")), "SUMMARY_UNAVAILABLE", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)
			assert.Equal(t, string(tt.err.Code), b.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	b := ConvertToBPMNError(NewSubmissionFailedError(422, "Title must be unique", false))
	vars := b.ToErrorVariables()

	assert.Equal(t, "SUBMISSION_FAILED", vars["errorCode"])
	assert.Equal(t, "Title must be unique", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
	meta, ok := vars["errorMetadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 422, meta["status"])
}

func TestNormalize(t *testing.T) {
	std := NewReviewNotFoundError("rev-9")
	assert.Same(t, std, Normalize(fmt.Errorf("wrap: %w", std)))

	n := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), n.Code)
	assert.Equal(t, "boom", n.Details)
	assert.False(t, n.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeContentTooShort))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodePayloadSchemaFailed))
	assert.Equal(t, "SUBMISSION", GetErrorCategory(ErrCodeStoreTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeAuditLogFailed))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeSummaryUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeCacheFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeIndexFailed))
}
