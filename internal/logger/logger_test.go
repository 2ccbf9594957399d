package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    string
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", "debug", true},
		{"info logs at debug level", "debug", "info", true},
		{"debug doesn't log at info level", "info", "debug", false},
		{"info logs at info level", "info", "info", true},
		{"error always logs", "debug", "error", true},
		{"warn hidden at error level", "error", "warn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			result := log.shouldLog(tt.logLevel)
			if result != tt.shouldLog {
				t.Errorf("shouldLog() = %v, want %v", result, tt.shouldLog)
			}
		})
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithFormat("info", "text", &buf)
	ctx := WithRequestID(context.Background(), "req-42")

	log.Debug(ctx, "hidden")
	log.Info(ctx, "saved %s", "clip.wav")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "[INFO] [req-42] saved clip.wav") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithFormat("debug", "json", &buf)
	ctx := WithRequestID(context.Background(), "abc")

	log.Warn(ctx, "retrying %d", 2)

	var got entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if got.Level != "warn" || got.Message != "retrying 2" || got.RequestID != "abc" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Service != "demozone" {
		t.Errorf("Service = %v, want demozone", got.Service)
	}
}

func TestRequestIDMissing(t *testing.T) {
	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID() = %q, want empty", id)
	}
}
