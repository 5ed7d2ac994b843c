package ui

import (
	"strings"
)

type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandQuit
	CommandAccounts
	CommandLogin
	CommandSwitch
	CommandInbox
	CommandLogs
	CommandLogout
	CommandHelp
)

type Command struct {
	Type CommandType
	Args []string
}

var commandNames = map[string]CommandType{
	"q":        CommandQuit,
	"quit":     CommandQuit,
	"a":        CommandAccounts,
	"accounts": CommandAccounts,
	"login":    CommandLogin,
	"s":        CommandSwitch,
	"switch":   CommandSwitch,
	"i":        CommandInbox,
	"inbox":    CommandInbox,
	"logs":     CommandLogs,
	"logout":   CommandLogout,
	"h":        CommandHelp,
	"help":     CommandHelp,
}

func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)

	if !strings.HasPrefix(input, ":") {
		return Command{Type: CommandUnknown}
	}

	parts := strings.Fields(strings.TrimPrefix(input, ":"))
	if len(parts) == 0 {
		return Command{Type: CommandUnknown}
	}

	cmdType, ok := commandNames[parts[0]]
	if !ok {
		return Command{Type: CommandUnknown, Args: parts[1:]}
	}
	return Command{Type: cmdType, Args: parts[1:]}
}

// shortcuts lists the keys that do something in the given view.
func shortcuts(state ViewState) []string {
	common := []string{"<:> command", "<L> logs", "<q> quit"}
	switch state {
	case ViewAccounts:
		return append([]string{"<enter> switch", "<a> add", "<d> remove", "<i> inbox", "<X> logout all"}, common...)
	case ViewInbox:
		return append([]string{"<r> reload", "<esc> back"}, common...)
	case ViewLogin:
		return []string{"<tab> next", "<enter> log in", "<esc> cancel"}
	}
	return common
}
