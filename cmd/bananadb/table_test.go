package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRenderTableAlignsAndPads(t *testing.T) {
	out := renderTable([]string{"ID", "Prompt"}, [][]string{{"7", "banana"}, {"12"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "ID") || !strings.Contains(out, "banana") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if !strings.Contains(out, "│  7 │") {
		t.Fatalf("expected right-aligned id column:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestTruncateCell(t *testing.T) {
	short := "a short prompt"
	if got := truncateCell(short); got != short {
		t.Fatalf("short value changed: %q", got)
	}
	long := strings.Repeat("banana ", 20)
	got := truncateCell(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxCellWidth {
		t.Fatalf("expected %d runes, got %d", maxCellWidth, n)
	}
}
