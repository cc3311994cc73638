package main

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/common/database"
)

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "test op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("down")
	}, 2, time.Millisecond, zap.NewNop(), "redis")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "redis failed after 2 attempts: down")
}

func TestHealthMux(t *testing.T) {
	db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()

	mux := healthMux(db, rdb, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	sqlMock.ExpectPing()
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["postgres"])
	assert.Equal(t, "ok", body["redis"])
	assert.NotContains(t, body, "elasticsearch")

	sqlMock.ExpectPing().WillReturnError(stderrors.New("connection reset"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connection reset", body["postgres"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
