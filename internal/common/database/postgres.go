// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/common/errors"
)

// NewPostgres opens the audit database pool.
func NewPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// Submission outcomes recorded in the audit log.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// SubmissionRecord is one row of review_submissions.
type SubmissionRecord struct {
	JobKey      int64
	JobID       string
	ReviewID    string
	ReviewerID  string
	RevieweeID  string
	Mode        string
	Outcome     string
	ErrorCode   string
	FieldErrors map[string]string
	PhotoCount  int
	AttemptedAt time.Time
}

const insertSubmissionSQL = `
	INSERT INTO review_submissions (
		job_key, job_id, review_id, reviewer_id, reviewee_id,
		mode, outcome, error_code, field_errors, photo_count, attempted_at
	) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
	RETURNING id`

// AuditLog records every submission attempt made by the submit worker.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record inserts rec and returns the generated row id.
func (a *AuditLog) Record(ctx context.Context, rec SubmissionRecord) (int64, error) {
	if rec.AttemptedAt.IsZero() {
		rec.AttemptedAt = time.Now().UTC()
	}

	fieldErrors := []byte("{}")
	if len(rec.FieldErrors) > 0 {
		b, err := json.Marshal(rec.FieldErrors)
		if err != nil {
			return 0, errors.NewAuditLogFailedError(err)
		}
		fieldErrors = b
	}

	var id int64
	err := a.db.QueryRowContext(ctx, insertSubmissionSQL,
		rec.JobKey,
		rec.JobID,
		rec.ReviewID,
		rec.ReviewerID,
		rec.RevieweeID,
		rec.Mode,
		rec.Outcome,
		rec.ErrorCode,
		fieldErrors,
		rec.PhotoCount,
		rec.AttemptedAt,
	).Scan(&id)
	if err != nil {
		return 0, errors.NewAuditLogFailedError(err)
	}
	return id, nil
}
