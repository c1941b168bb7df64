package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNew_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "json", RequestIDExtractor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	log.InfoContext(ctx, "page served", slog.Int("status", 200))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Expected JSON output, got %q", buf.String())
	}
	if rec["request_id"] != "req-42" {
		t.Errorf("Expected request_id, got %v", rec["request_id"])
	}
	if rec["msg"] != "page served" {
		t.Errorf("Unexpected msg: %v", rec["msg"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("Warn should be logged")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
}

func TestDecorator_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(&buf, "info", "json", RequestIDExtractor, nil)

	log.InfoContext(context.Background(), "no id")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("Unexpected request_id in %q", buf.String())
	}
}

func TestDecorator_WithAttrsKeepsExtractors(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(&buf, "info", "json", RequestIDExtractor)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-7")
	log.With(slog.String("component", "server")).WithGroup("g").InfoContext(ctx, "hi", slog.Int("n", 1))

	out := buf.String()
	if !strings.Contains(out, `"component":"server"`) || !strings.Contains(out, "req-7") {
		t.Errorf("Expected static and extracted attributes, got %q", out)
	}
}

func TestNewNope(t *testing.T) {
	log := NewNope()
	if log.Enabled(context.Background(), slog.LevelError) {
		t.Error("Nope logger should be disabled")
	}
}
