package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func newBufferedLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(handler)), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *SlogLogger, ctx context.Context)
		level string
	}{
		{"debug", func(l *SlogLogger, ctx context.Context) { l.Debug(ctx, "msg") }, "DEBUG"},
		{"info", func(l *SlogLogger, ctx context.Context) { l.Info(ctx, "msg") }, "INFO"},
		{"warn", func(l *SlogLogger, ctx context.Context) { l.Warn(ctx, "msg") }, "WARN"},
		{"error", func(l *SlogLogger, ctx context.Context) { l.Error(ctx, "msg") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferedLogger()
			tt.log(l, context.Background())

			entry := decodeLine(t, buf)
			if entry["level"] != tt.level || entry["msg"] != "msg" {
				t.Errorf("unexpected entry: %v", entry)
			}
		})
	}
}

func TestSlogLogger_Attributes(t *testing.T) {
	l, buf := newBufferedLogger()
	l.Info(context.Background(), "pinned", "cid", "Qm1")

	entry := decodeLine(t, buf)
	if entry["cid"] != "Qm1" {
		t.Errorf("attribute missing: %v", entry)
	}
}

func TestSlogLogger_With(t *testing.T) {
	l, buf := newBufferedLogger()
	child := l.With("module", "asset_service")
	child.Info(context.Background(), "listed")

	entry := decodeLine(t, buf)
	if entry["module"] != "asset_service" {
		t.Errorf("bound attribute missing: %v", entry)
	}
}
