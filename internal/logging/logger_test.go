package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bananadb/internal/config"
	"bananadb/internal/logging"
)

func TestNewConsoleWritesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "capture")
	logger.Info("saved image", logging.Int64(logging.FieldImageID, 42), logging.String("note", "two words"))

	line := buf.String()
	if !strings.Contains(line, "INFO capture: saved image") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "image_id=42") {
		t.Fatalf("expected image_id attr in %q", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected quoted value in %q", line)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", ConsoleWriter: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, logging.ConsoleNone, "host.log")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("host started", logging.String("version", "dev"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "host.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", data, err)
	}
	if entry["msg"] != "host started" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key")
	}
}

func TestWithContextAddsCorrelationAndTab(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithCorrelationID(context.Background(), "req-1")
	ctx = logging.WithTabID(ctx, 7)
	logging.WithContext(ctx, base).Info("click")

	line := buf.String()
	if !strings.Contains(line, "correlation_id=req-1") || !strings.Contains(line, "tab_id=7") {
		t.Fatalf("expected context fields in %q", line)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "inject failed", "dialog_inject_failed", logging.String(logging.FieldImpact, "dialog may not appear"))

	line := buf.String()
	if !strings.Contains(line, "event_type=dialog_inject_failed") {
		t.Fatalf("expected event_type in %q", line)
	}
	if !strings.Contains(line, `impact="dialog may not appear"`) {
		t.Fatalf("expected caller impact preserved in %q", line)
	}
	if strings.Count(line, "impact=") != 1 {
		t.Fatalf("expected exactly one impact field in %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
}
