package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.in); got != tt.want {
				t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, "warn", "json")
	l.Info("hidden")
	l.Warn("shown", "file", "STU_BRA.xlsx")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["file"] != "STU_BRA.xlsx" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewTextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, "info", "text").Info("hello", "rows", 3)
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "rows=3") {
		t.Fatalf("text output = %q", buf.String())
	}
}

func TestRunIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := NewRunID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("NewRunID() = %q, not a UUID: %v", id, err)
	}
	ctx := WithRunID(context.Background(), id)
	if got := RunID(ctx); got != id {
		t.Fatalf("RunID() = %q, want %q", got, id)
	}
	if got := RunID(context.Background()); got != "" {
		t.Fatalf("RunID(empty ctx) = %q, want empty", got)
	}
	if FromContext(ctx) == nil || WithFields(ctx, "k", "v") == nil {
		t.Fatalf("FromContext/WithFields returned nil")
	}
}
