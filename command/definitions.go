package command

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// PendingCommand defines the /pending command.
type PendingCommand struct{}

// Definition returns the bot command definition.
func (c *PendingCommand) Definition() tgbotapi.BotCommand {
	return tgbotapi.BotCommand{Command: "pending", Description: "List posts waiting for a decision"}
}

// ReviewCommand defines the /review command.
type ReviewCommand struct{}

// Definition returns the bot command definition.
func (c *ReviewCommand) Definition() tgbotapi.BotCommand {
	return tgbotapi.BotCommand{Command: "review", Description: "Present a pending post again: /review <id>"}
}

// StatusCommand defines the /status command.
type StatusCommand struct{}

// Definition returns the bot command definition.
func (c *StatusCommand) Definition() tgbotapi.BotCommand {
	return tgbotapi.BotCommand{Command: "status", Description: "Show post counts and process stats"}
}

// PingCommand defines the /ping command.
type PingCommand struct{}

// Definition returns the bot command definition.
func (c *PingCommand) Definition() tgbotapi.BotCommand {
	return tgbotapi.BotCommand{Command: "ping", Description: "Check that the bot is alive"}
}
