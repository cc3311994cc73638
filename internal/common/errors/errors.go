// Package errors provides the review engine's error taxonomy and its mapping onto BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Local, field-scoped errors. Never reach the Review Store.
const (
	ErrCodeValidationFailed    ErrorCode = "REVIEW_VALIDATION_FAILED"
	ErrCodeRatingRequired      ErrorCode = "RATING_REQUIRED"
	ErrCodeRatingOutOfRange    ErrorCode = "RATING_OUT_OF_RANGE"
	ErrCodeTitleRequired       ErrorCode = "TITLE_REQUIRED"
	ErrCodeTitleTooLong        ErrorCode = "TITLE_TOO_LONG"
	ErrCodeContentRequired     ErrorCode = "CONTENT_REQUIRED"
	ErrCodeContentTooShort     ErrorCode = "CONTENT_TOO_SHORT"
	ErrCodeContentTooLong      ErrorCode = "CONTENT_TOO_LONG"
	ErrCodeInvalidCategory     ErrorCode = "INVALID_CATEGORY_RATING"
	ErrCodePayloadSchemaFailed ErrorCode = "PAYLOAD_SCHEMA_FAILED"
)

// Attachment errors. Recovered at add time; the rest of a batch proceeds.
const (
	ErrCodeFileTooLarge    ErrorCode = "FILE_TOO_LARGE"
	ErrCodeInvalidFileType ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeDecodeFailed    ErrorCode = "ATTACHMENT_DECODE_FAILED"
)

// Remote boundary errors.
const (
	ErrCodeSubmissionFailed   ErrorCode = "SUBMISSION_FAILED"
	ErrCodeStoreUnavailable   ErrorCode = "REVIEW_STORE_UNAVAILABLE"
	ErrCodeStoreTimeout       ErrorCode = "REVIEW_STORE_TIMEOUT"
	ErrCodeReviewNotFound     ErrorCode = "REVIEW_NOT_FOUND"
	ErrCodeSummaryUnavailable ErrorCode = "SUMMARY_UNAVAILABLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeAuditLogFailed           ErrorCode = "AUDIT_LOG_FAILED"
	ErrCodeCacheFailed              ErrorCode = "SUMMARY_CACHE_FAILED"
	ErrCodeIndexFailed              ErrorCode = "REVIEW_INDEX_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *StandardError by code so sentinel comparisons work through wrapping.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// FromError unwraps err into a *StandardError when one is present in the chain.
func FromError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := FromError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError wraps the per-field messages of a rejected draft.
func NewValidationFailedError(fields map[string]string) *StandardError {
	meta := make(map[string]interface{}, len(fields))
	parts := make([]string, 0, len(fields))
	for field, msg := range fields {
		meta[field] = msg
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Review validation failed",
		Details:   strings.Join(parts, "; "),
		Retryable: false,
		Metadata:  meta,
		Timestamp: time.Now().UTC(),
	}
}

func NewPayloadSchemaError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadSchemaFailed,
		Message:   "Review payload does not match the store schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileTooLargeError is returned when an attachment exceeds the size limit.
func NewFileTooLargeError(name string, size, limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileTooLarge,
		Message:   "File too large",
		Details:   fmt.Sprintf("%s is larger than %dMB. Please choose a smaller file.", name, limit/(1024*1024)),
		Retryable: false,
		Metadata:  map[string]interface{}{"file": name, "size": size},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidFileTypeError(name, contentType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFileType,
		Message:   "Invalid file type",
		Details:   fmt.Sprintf("%s is %s. Please upload a JPG, PNG, or WebP image.", name, contentType),
		Retryable: false,
		Metadata:  map[string]interface{}{"file": name, "contentType": contentType},
		Timestamp: time.Now().UTC(),
	}
}

func NewDecodeFailedError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Could not read attachment",
		Details:   fmt.Sprintf("%s: %v", name, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionFailedError carries the store's detail (may be empty) for a rejected submission.
func NewSubmissionFailedError(status int, detail string, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFailed,
		Message:   "Review store rejected the submission",
		Details:   detail,
		Retryable: retryable,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Review store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreTimeout,
		Message:   "Review store timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewReviewNotFoundError(reviewID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReviewNotFound,
		Message:   "Review not found",
		Details:   fmt.Sprintf("reviewId: %s", reviewID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSummaryUnavailableError(revieweeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSummaryUnavailable,
		Message:   "Rating summary unavailable",
		Details:   fmt.Sprintf("revieweeId: %s, error: %v", revieweeID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuditLogFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditLogFailed,
		Message:   "Submission audit log write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Summary cache error",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIndexFailedError(reviewID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexFailed,
		Message:   "Review indexing failed",
		Details:   fmt.Sprintf("reviewId: %s, error: %v", reviewID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchQueryFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("query: %s, error: %v", query, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping collapses field-level codes onto the workflow-level code the BPMN catches.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:    "REVIEW_VALIDATION_FAILED",
	ErrCodeRatingRequired:      "REVIEW_VALIDATION_FAILED",
	ErrCodeRatingOutOfRange:    "REVIEW_VALIDATION_FAILED",
	ErrCodeTitleRequired:       "REVIEW_VALIDATION_FAILED",
	ErrCodeTitleTooLong:        "REVIEW_VALIDATION_FAILED",
	ErrCodeContentRequired:     "REVIEW_VALIDATION_FAILED",
	ErrCodeContentTooShort:     "REVIEW_VALIDATION_FAILED",
	ErrCodeContentTooLong:      "REVIEW_VALIDATION_FAILED",
	ErrCodeInvalidCategory:     "REVIEW_VALIDATION_FAILED",
	ErrCodePayloadSchemaFailed: "REVIEW_VALIDATION_FAILED",
	ErrCodeFileTooLarge:        "ATTACHMENT_REJECTED",
	ErrCodeInvalidFileType:     "ATTACHMENT_REJECTED",
	ErrCodeDecodeFailed:        "ATTACHMENT_REJECTED",
	ErrCodeSubmissionFailed:    "SUBMISSION_FAILED",
	ErrCodeStoreUnavailable:    "SUBMISSION_FAILED",
	ErrCodeStoreTimeout:        "SUBMISSION_FAILED",
	ErrCodeReviewNotFound:      "REVIEW_NOT_FOUND",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeAuditLogFailed,
		ErrCodeIndexFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeSummaryUnavailable:
		return 3

	case ErrCodeStoreTimeout, ErrCodeSubmissionFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if len(stdErr.Metadata) > 0 {
		vars["errorMetadata"] = stdErr.Metadata
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the taxonomy bucket of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeFileTooLarge, ErrCodeInvalidFileType, ErrCodeDecodeFailed:
		return "ATTACHMENT"
	case ErrCodeSubmissionFailed, ErrCodeStoreUnavailable, ErrCodeStoreTimeout, ErrCodeReviewNotFound:
		return "SUBMISSION"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "AUDIT"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INDEX") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "REQUIRED"), strings.Contains(codeStr, "TOO_"),
		strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "VALIDATION"),
		strings.Contains(codeStr, "RANGE"), strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
