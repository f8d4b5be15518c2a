package command

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Command is an interface for bot commands.
type Command interface {
	Definition() tgbotapi.BotCommand
}

// AllCommands holds all the command instances.
var AllCommands = []Command{
	&PendingCommand{},
	&ReviewCommand{},
	&StatusCommand{},
	&PingCommand{},
}

// GetCommandDefinitions returns a slice of all command definitions.
func GetCommandDefinitions() []tgbotapi.BotCommand {
	defs := make([]tgbotapi.BotCommand, len(AllCommands))
	for i, cmd := range AllCommands {
		defs[i] = cmd.Definition()
	}
	return defs
}
