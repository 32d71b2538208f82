package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"geocatalog/internal/config"
)

func TestNew_WritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogDirectory = filepath.Join(t.TempDir(), "logs")
	cfg.LogFormat = "json"

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Info().Str("component", "test").Msg("hello file")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDirectory, FileName))
	if err != nil {
		t.Fatalf("Log file should exist: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Log file missing message: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestWithRequestID_TagsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriter(&buf, "debug")

	ctx := WithRequestID(context.Background(), base.Logger, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("Expected request id req-123, got %q", got)
	}

	Ctx(ctx).Info().Msg("tagged")
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("Expected request_id in log line, got %s", buf.String())
	}
}

func TestRequestID_EmptyWithoutValue(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("Expected empty request id, got %q", got)
	}
	if NewRequestID() == NewRequestID() {
		t.Error("Request IDs should be unique")
	}
}
