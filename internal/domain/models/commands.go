package models

import "strings"

// CommandType enumerates supported chat command categories.
type CommandType string

const (
	CommandStock     CommandType = "stock"
	CommandLots      CommandType = "lots"
	CommandBreakdown CommandType = "breakdown"
	CommandHelp      CommandType = "help"
	CommandUnknown   CommandType = "unknown"
)

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. Only the command word is
// case-folded; arguments keep their case since variety names are matched later.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandStock, CommandLots, CommandBreakdown, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
