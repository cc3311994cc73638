package observability

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"servicehub-reviews/internal/common/logger"
)

// LogExporter writes finished spans to the structured log.
type LogExporter struct {
	mu      sync.Mutex
	logger  logger.Logger
	stopped bool
}

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

func NewLogExporter(log logger.Logger) *LogExporter {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &LogExporter{logger: log}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}

	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields := map[string]interface{}{
			"span":       s.Name(),
			"traceId":    s.SpanContext().TraceID().String(),
			"spanId":     s.SpanContext().SpanID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
		}
		if s.Parent().IsValid() {
			fields["parentSpanId"] = s.Parent().SpanID().String()
		}
		if desc := s.Status().Description; desc != "" {
			fields["statusDescription"] = desc
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.AsInterface()
		}
		e.logger.Info("span finished", fields)
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	return ctx.Err()
}

// WithLogExporter batches finished spans into the structured log.
func WithLogExporter(log logger.Logger) Option {
	return WithSpanProcessor(sdktrace.NewBatchSpanProcessor(NewLogExporter(log)))
}
