// Package console turns raw process output into display lines and keeps the
// bounded line buffer shown in the operator console.
package console

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// spinner glyphs redrawn by package managers on their own line.
var spinnerGlyphs = map[string]bool{
	"/":  true,
	"|":  true,
	`\`: true,
	"-":  true,
}

// Ingest folds one raw output chunk into prior and returns the new sequence.
// prior is not modified.
//
// A chunk with a carriage return but no newline is a progress redraw: its
// last non-blank segment replaces the last line instead of being appended.
// Otherwise the chunk is split into lines; blank lines and bare spinner
// glyphs are dropped.
func Ingest(chunk string, prior []string) []string {
	clean := ansi.Strip(chunk)
	if strings.TrimSpace(clean) == "" {
		return prior
	}

	if strings.Contains(clean, "\r") && !strings.Contains(clean, "\n") && len(prior) > 0 {
		text := lastSegment(clean)
		if text == "" {
			return prior
		}
		out := make([]string, len(prior))
		copy(out, prior)
		out[len(out)-1] = text
		return out
	}

	out := make([]string, len(prior), len(prior)+4)
	copy(out, prior)
	for _, line := range strings.Split(strings.TrimSpace(clean), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.Contains(line, "\r") {
			line = lastSegment(line)
		}
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || spinnerGlyphs[trimmed] {
			continue
		}
		out = append(out, line)
	}
	return out
}

// lastSegment returns the last non-blank carriage-return separated segment,
// trimmed.
func lastSegment(s string) string {
	parts := strings.Split(s, "\r")
	for i := len(parts) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(parts[i]); t != "" {
			return t
		}
	}
	return ""
}
