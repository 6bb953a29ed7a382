package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "info")

	logger.Info("worker_started", "camera", "gate", "pid", 1234)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "worker_started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["camera"] != "gate" {
		t.Errorf("camera = %v", entry["camera"])
	}
}

func TestNewLoggerWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "warn")

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("ignored")) {
		t.Errorf("info line leaked at warn level: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("kept")) {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerWritesRunLog(t *testing.T) {
	runLog := filepath.Join(t.TempDir(), "supervisor.log")
	logger := NewLogger("json", "info", false, runLog)

	logger.Info("launch_complete", "workers", 3)

	data, err := os.ReadFile(runLog)
	if err != nil {
		t.Fatalf("run log not written: %v", err)
	}
	if !bytes.Contains(data, []byte("launch_complete")) {
		t.Errorf("run log missing entry: %s", data)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	runLog := filepath.Join(t.TempDir(), "supervisor.log")
	logger := NewLogger("json", "info", true, runLog)

	logger.Debug("worker_state_changed", "camera", "gate")

	data, err := os.ReadFile(runLog)
	if err != nil {
		t.Fatalf("run log not written: %v", err)
	}
	if !bytes.Contains(data, []byte("worker_state_changed")) {
		t.Errorf("debug line missing in verbose mode: %s", data)
	}
}
