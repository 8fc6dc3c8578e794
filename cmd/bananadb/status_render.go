package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// statusKind grades one line of `bananadb status` output.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct {
	tag    string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

func (k statusKind) String() string {
	if style, ok := statusStyles[k]; ok {
		return style.tag
	}
	return statusStyles[statusInfo].tag
}

// renderStatusLine formats "  Label:   [KIND] message", tinted by kind when
// colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	var b strings.Builder
	b.WriteString(statusIndent)
	b.WriteString(text.AlignLeft.Apply(label+":", statusLabelWidth))
	b.WriteString(" [")
	b.WriteString(kind.String())
	b.WriteString("]")
	if message != "" {
		b.WriteString(" ")
		b.WriteString(message)
	}
	line := b.String()
	if !colorize {
		return line
	}
	style, ok := statusStyles[kind]
	if !ok {
		return line
	}
	return style.colors.Sprint(line)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = text.Colors{text.FgBlue, text.Bold}.Sprint(lines[i])
		}
	}
	return lines
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
