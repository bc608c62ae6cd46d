package tui

import "strings"

// Command represents a parsed slash command.
type Command struct {
	Name string
	Args []string
	Rest string // raw text after the name, for free-form arguments
}

// ParseCommand parses a slash command string into a Command.
// Returns nil if the input is not a valid command.
func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	if input == "" || input[0] != '/' {
		return nil
	}

	parts := strings.Fields(input)
	return &Command{
		Name: parts[0],
		Args: parts[1:],
		Rest: strings.TrimSpace(strings.TrimPrefix(input, parts[0])),
	}
}

// commandHelp lists the slash commands for the help modal.
var commandHelp = []string{
	"/prompt <text>",
	"/steps <file> [file...]",
	"/open <path>",
	"/export [dir] [name]",
	"/clear",
	"/toggle",
	"/restart",
	"/quit",
}
