package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: servicehub
    user: servicehub
  redis:
    address: localhost:6379
workers:
  submit-review:
    enabled: true
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, DefaultReviewStoreURL, cfg.ReviewStore.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.StoreTimeout())
	assert.Equal(t, 5, cfg.Review.MaxPhotos)
	assert.Equal(t, int64(5*1024*1024), cfg.Review.MaxPhotoBytes)
	assert.Equal(t, 100, cfg.Review.TitleMaxLength)
	assert.Equal(t, 20, cfg.Review.ContentMinLength)
	assert.Equal(t, 1000, cfg.Review.ContentMaxLength)
	assert.Equal(t, 5*time.Minute, cfg.SummaryTTL())
	assert.Equal(t, "reviews", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "log", cfg.Tracing.Exporter)

	w := cfg.Workers["submit-review"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_TrimsStoreURL(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
review_store:
  base_url: https://api.servicehub.test/
`))
	require.NoError(t, err)
	assert.Equal(t, "https://api.servicehub.test", cfg.ReviewStore.BaseURL)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_REVIEW_STORE_TOKEN", "secret-token")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
review_store:
  auth_token: ${TEST_REVIEW_STORE_TOKEN}
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.ReviewStore.AuthToken)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n  redis:\n    address: r\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "bad store url",
			body:    minimalConfig + "review_store:\n  base_url: localhost:8001\n",
			wantErr: "review_store.base_url must be an http(s) URL",
		},
		{
			name:    "content bounds inverted",
			body:    minimalConfig + "review:\n  content_min_length: 500\n  content_max_length: 100\n",
			wantErr: "exceeds review.content_max_length",
		},
		{
			name:    "sns without topic",
			body:    minimalConfig + "notifications:\n  sns:\n    enabled: true\n",
			wantErr: "notifications.sns.topic_arn is required",
		},
		{
			name:    "ses without moderation inbox",
			body:    minimalConfig + "notifications:\n  ses:\n    enabled: true\n    from: reviews@servicehub.test\n",
			wantErr: "notifications.ses.from and moderation_address are required",
		},
		{
			name:    "unknown trace exporter",
			body:    minimalConfig + "tracing:\n  exporter: jaeger\n",
			wantErr: "tracing.exporter must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_SESInheritsSNSRegion(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
notifications:
  sns:
    region: ap-southeast-2
`))
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", cfg.Notifications.SES.Region)
	assert.Equal(t, 2, cfg.Notifications.SES.AlertAtOrBelow)
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	w := GetWorkerConfig(cfg, "summarize-ratings")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "reviews", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=reviews sslmode=require", p.GetDSN())
}
