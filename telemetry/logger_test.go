package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_StructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	log.Info(ctx, "sweep complete", F("removed", 3), F("interval", "1m"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["msg"] != "sweep complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["removed"] != float64(3) {
		t.Errorf("removed = %v", entry["removed"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("entry should carry a timestamp")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	log.Debug(ctx, "dropped")
	log.Info(ctx, "dropped")
	log.Warn(ctx, "kept")
	log.Error(ctx, "kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf).WithComponent("sweeper")

	log.Info(context.Background(), "started")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["component"] != "sweeper" {
		t.Errorf("component = %v, want sweeper", entries[0]["component"])
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)

	log.Info(context.Background(), "stored",
		F("data", "top secret payload"),
		F("token", "abc123"),
		F("key", "/users/1"),
	)

	entries := decodeLines(t, &buf)
	entry := entries[0]
	if entry["data"] != "[REDACTED]" {
		t.Errorf("data = %v, want [REDACTED]", entry["data"])
	}
	if entry["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", entry["token"])
	}
	if entry["key"] != "/users/1" {
		t.Errorf("key = %v, want /users/1", entry["key"])
	}
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	// Must not panic and must keep discarding through WithComponent.
	log.Info(context.Background(), "ignored")
	log.WithComponent("x").Error(context.Background(), "ignored")
}
