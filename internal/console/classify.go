package console

import (
	"regexp"
	"strings"
)

// Level is the display class of a console line. It is derived from the text
// every time a line is rendered and never stored.
type Level int

const (
	LevelInfo Level = iota
	LevelError
	LevelWarning
	LevelSuccess
	LevelCommand
	LevelMuted
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelSuccess:
		return "success"
	case LevelCommand:
		return "command"
	case LevelMuted:
		return "muted"
	default:
		return "info"
	}
}

var (
	errorCues   = []string{"error", "fail", "err!", "missing"}
	warningCues = []string{"warn", "deprecated"}
	successCues = []string{"success", "ready", "done", "server started", "local:"}

	packageCount = regexp.MustCompile(`\b(added|removed|changed|audited|installed) \d+ packages?\b|\b\d+ packages? (installed|added)\b`)
	semverToken  = regexp.MustCompile(`\bv?\d+\.\d+\.\d+(?:-[0-9a-z.]+)?\b`)
)

// promptMarkers start a command echo line ("$ npm install", "> vite").
var promptMarkers = []string{"$", ">"}

// depMarker appears in dependency paths printed by package managers.
const depMarker = "node_modules/"

// Classify returns the display class of line. Rules are checked in order and
// the first match wins: error, warning, success, command echo, muted.
func Classify(line string) Level {
	lower := strings.ToLower(line)

	switch {
	case containsAny(lower, errorCues):
		return LevelError
	case containsAny(lower, warningCues):
		return LevelWarning
	case containsAny(lower, successCues) || packageCount.MatchString(lower):
		return LevelSuccess
	case hasPromptMarker(line):
		return LevelCommand
	case strings.Contains(lower, depMarker) || semverToken.MatchString(lower):
		return LevelMuted
	}
	return LevelInfo
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func hasPromptMarker(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, m := range promptMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return false
}
