package sandbox

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
)

// ParseCommand splits a command line using shell quoting rules.
func ParseCommand(line string) ([]string, error) {
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// JoinCommand is the inverse of ParseCommand, used for console echo lines.
func JoinCommand(argv []string) string {
	return shellquote.Join(argv...)
}
