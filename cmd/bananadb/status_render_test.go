package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"bananadb/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Server", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Server:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	plain := renderStatusLine("Server", statusOK, "Running", false)
	got := renderStatusLine("Server", statusOK, "Running", true)
	if want := (text.Colors{text.FgGreen}).Sprint(plain); got != want {
		t.Fatalf("expected green line\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderSectionHeaderRuleMatchesWidth(t *testing.T) {
	lines := renderSectionHeader(" Checks ", false)
	if lines[0] != "== Checks ==" || len(lines[1]) != len(lines[0]) || strings.Trim(lines[1], "-") != "" {
		t.Fatalf("unexpected header %q", lines)
	}
}

func TestStatusKindString(t *testing.T) {
	if statusWarn.String() != "WARN" || statusKind(99).String() != "INFO" {
		t.Fatalf("unexpected kind labels %q %q", statusWarn, statusKind(99))
	}
}

func TestCheckLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "Data directory", Passed: true, Detail: "/data (read/write ok)"},
		{Name: "Vision model", Detail: "API key missing (images get placeholder analysis)"},
		{Name: "Collector", Detail: "http://localhost:8000 unreachable (refused)"},
	}
	lines := checkLines(results, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] 1 of 3 checks passed") {
		t.Fatalf("expected error summary, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] /data") {
		t.Fatalf("expected ok line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] API key missing") {
		t.Fatalf("expected warn line, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[ERROR] http://localhost:8000 unreachable") {
		t.Fatalf("expected error line, got %q", lines[3])
	}
}

func TestCheckLinesWarnOnlySummary(t *testing.T) {
	lines := checkLines([]preflight.Result{{Name: "Native host manifest", Detail: "not installed (run: bananadb install-host)"}}, false)
	if !strings.Contains(lines[0], "[WARN] 0 of 1 checks passed") {
		t.Fatalf("expected warn summary, got %q", lines[0])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestStatusCommandReportsStoppedServer(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Collector.URL = "http://127.0.0.1:1"
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Server ==")
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "Native host manifest:")
}
