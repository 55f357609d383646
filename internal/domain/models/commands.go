package models

import "strings"

// CommandType enumerates the report commands the owner can text in.
type CommandType string

const (
	CommandReport  CommandType = "report"
	CommandSales   CommandType = "sales"
	CommandTotals  CommandType = "totals"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Date returns the first argument, which every command reads as a day.
// Empty means today.
func (c Command) Date() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// ParseCommand derives a Command instance from free-form text messages.
// The leading slash is optional.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.ToLower(message))
	if len(tokens) == 0 {
		return Command{Type: CommandUnknown, Raw: message}
	}

	cmd := Command{Raw: message, Type: CommandUnknown}
	switch head := CommandType(strings.TrimPrefix(tokens[0], "/")); head {
	case CommandReport, CommandSales, CommandTotals, CommandHelp:
		cmd.Type = head
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
