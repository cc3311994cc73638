package observability

import (
	"context"
	stderrors "errors"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"servicehub-reviews/internal/common/logger"
)

func TestWithLogExporter_FlushesSpansOnShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	obs, err := New("review-engine-test",
		WithRegisterer(promclient.NewRegistry()),
		WithLogExporter(logger.NewZapAdapter(zap.New(core))),
	)
	require.NoError(t, err)

	ctx, parent := obs.StartSpan(context.Background(), "submit-review", attribute.Int64("jobKey", 42))
	_, child := obs.StartSpan(ctx, "review-store.create")
	EndSpan(child, stderrors.New("store unavailable"))
	EndSpan(parent, nil)

	require.NoError(t, obs.Shutdown(context.Background()))

	finished := logs.FilterMessage("span finished").All()
	require.Len(t, finished, 2)

	byName := map[string]map[string]interface{}{}
	for _, entry := range finished {
		fields := entry.ContextMap()
		byName[fields["span"].(string)] = fields
	}

	submit := byName["submit-review"]
	require.NotNil(t, submit)
	assert.Equal(t, int64(42), submit["jobKey"])
	assert.Equal(t, "Unset", submit["status"])
	assert.NotContains(t, submit, "parentSpanId")

	create := byName["review-store.create"]
	require.NotNil(t, create)
	assert.Equal(t, "Error", create["status"])
	assert.Equal(t, "store unavailable", create["statusDescription"])
	assert.Equal(t, submit["spanId"], create["parentSpanId"])
	assert.Equal(t, submit["traceId"], create["traceId"])
}

func TestLogExporter_IgnoresSpansAfterShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	exp := NewLogExporter(logger.NewZapAdapter(zap.New(core)))

	require.NoError(t, exp.Shutdown(context.Background()))
	assert.NoError(t, exp.ExportSpans(context.Background(), nil))
	assert.Equal(t, 0, logs.Len())
}
