package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents a logical unit of work tied to a request trace, such as one
// token refresh or one toggle.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from the provided context, enriching the logger
// with tracing metadata. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	parentSpanID := SpanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = WithSpanID(ctx, spanID)

	return ctx, &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}
}

// Fail records err as the span outcome and returns it unchanged, so call sites can
// write `return span.Fail(err)`.
func (s *Span) Fail(err error) error {
	if s != nil && err != nil {
		s.err = err
	}
	return err
}

// End finalizes the span and emits a debug completion entry, including the error
// recorded by Fail.
func (s *Span) End() {
	if s == nil {
		return
	}
	duration := slog.Duration("duration", time.Since(s.start))
	if s.err != nil {
		s.logger.Debug("span failed", duration, slog.String("error", s.err.Error()))
		return
	}
	s.logger.Debug("span completed", duration)
}
