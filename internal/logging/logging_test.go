package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf))

	logger.Info("installing skill", "skill", "seo")

	out := buf.String()
	if !strings.Contains(out, "installing skill") || !strings.Contains(out, "skill=seo") {
		t.Errorf("output = %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithFormat(FormatJSON), WithOutput(&buf))

	logger.Warn("retrying", "attempt", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "retrying" || entry["level"] != "WARN" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["attempt"]; !ok {
		t.Error("missing attribute")
	}

	// Timestamps are normalized to RFC3339 (no sub-second dot).
	ts, _ := entry["time"].(string)
	if ts == "" || strings.Contains(ts, ".") {
		t.Errorf("time = %q, want RFC3339", ts)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithLevel(slog.LevelWarn), WithOutput(&buf))

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn should pass")
	}
}
