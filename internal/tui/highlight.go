package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
)

const highlightStyle = "monokai"

// formatterFor maps a terminal color profile to a chroma formatter name.
func formatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return ""
	}
}

// Highlight returns content with syntax colors for the language matching
// path. Unknown languages and colorless profiles get the content unchanged.
func Highlight(path, content string, profile termenv.Profile) string {
	formatter := formatterFor(profile)
	if formatter == "" {
		return content
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		return content
	}

	var b strings.Builder
	if err := quick.Highlight(&b, content, lexer.Config().Name, formatter, highlightStyle); err != nil {
		return content
	}
	return b.String()
}
