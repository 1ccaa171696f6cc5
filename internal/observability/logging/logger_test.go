package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := InitWriter(Config{Level: "debug", Format: "json", Service: "test-svc"}, &buf)

	logger.Debug().Str("key", "value").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "test-svc" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", entry["message"])
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("expected global level debug, got %v", zerolog.GlobalLevel())
	}
}

func TestInitWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "chatty"}, &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level fallback, got %v", zerolog.GlobalLevel())
	}
}

func TestWithUser(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "info"}, &buf)

	logger := WithUser("bot", 1234)
	logger.Info().Msg("scoped")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if entry["component"] != "bot" {
		t.Errorf("expected component 'bot', got %v", entry["component"])
	}
	if entry["userId"] != float64(1234) {
		t.Errorf("expected userId 1234, got %v", entry["userId"])
	}
}
