package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetInitializesDefault(t *testing.T) {
	defaultLogger = nil
	if Get() == nil {
		t.Fatal("Get should lazily initialize a logger")
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Setenv("ENV", "development")
	var buf bytes.Buffer
	InitWithWriter("warn", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	Info("hidden message")
	Warn("shown message", "ticks", 12)

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown message") || !strings.Contains(out, "ticks=12") {
		t.Errorf("expected warn line with attrs, got: %s", out)
	}
}

func TestContextIDs(t *testing.T) {
	t.Setenv("ENV", "development")
	var buf bytes.Buffer
	InitWithWriter("debug", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, SessionIDKey, "sess-9")
	InfoContext(ctx, "frame sent")
	DebugContext(context.Background(), "no ids")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "request_id=req-1") || !strings.Contains(lines[0], "session_id=sess-9") {
		t.Errorf("missing ids: %s", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("unexpected request id: %s", lines[1])
	}
}

func TestWithComponent(t *testing.T) {
	t.Setenv("ENV", "development")
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	WithComponent("animator").Info("started")
	if !strings.Contains(buf.String(), "component=animator") {
		t.Errorf("expected component label, got: %s", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	t.Setenv("ENV", "production")
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	ErrorContext(context.WithValue(context.Background(), RequestIDKey, "r"), "layout failed", "nodes", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output in production, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "layout failed" || rec["request_id"] != "r" || rec["nodes"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}
}
