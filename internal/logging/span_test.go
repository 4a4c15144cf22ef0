package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStartSpanPropagatesTraceAndParent(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, slog.LevelDebug))

	ctx, parent := StartSpan(ctx, "outer")
	traceID := TraceIDFromContext(ctx)
	parentID := SpanIDFromContext(ctx)
	if traceID == "" || parentID == "" {
		t.Fatalf("expected trace and span ids on context, got %q %q", traceID, parentID)
	}

	childCtx, child := StartSpan(ctx, "inner")
	if got := TraceIDFromContext(childCtx); got != traceID {
		t.Fatalf("expected child to inherit trace id %q, got %q", traceID, got)
	}
	if SpanIDFromContext(childCtx) == parentID {
		t.Fatal("expected child span to get a fresh span id")
	}

	child.End()
	parent.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["parent_span_id"] != parentID {
		t.Fatalf("expected parent_span_id %q, got %v", parentID, entry["parent_span_id"])
	}
}

func TestSpanFailRecordsError(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, slog.LevelDebug))

	_, span := StartSpan(ctx, "work")
	boom := errors.New("boom")
	if err := span.Fail(boom); !errors.Is(err, boom) {
		t.Fatalf("expected Fail to return its argument, got %v", err)
	}
	span.End()

	if !strings.Contains(buf.String(), `"msg":"span failed"`) || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger for bare context")
	}
	var span *Span
	span.End()
}
