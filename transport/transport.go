// Package transport declares the narrow contracts the pipeline needs from the
// messaging platform. The telegram subpackage implements them.
package transport

import (
	"context"

	"channel-relay/models"
)

// MaxMediaGroup is the largest number of attachments one group message may carry.
const MaxMediaGroup = 10

// Controls asks for the inline approve/reject keyboard of a post.
type Controls struct {
	PostID int64
}

// Callback is a pressed inline button.
type Callback struct {
	ID        string
	FromID    int64
	ChatID    int64
	MessageID int
	Data      string
}

// Command is a slash command sent to the bot.
type Command struct {
	FromID int64
	ChatID int64
	Name   string
	Args   string
}

// BotHandlers receives bot-side events. Each call runs in its own task.
type BotHandlers struct {
	OnCallback func(ctx context.Context, cb Callback)
	OnCommand  func(ctx context.Context, cmd Command)
}

// Bot is the moderator-facing side. Text is sent as HTML markup.
type Bot interface {
	SendText(ctx context.Context, chat models.ChatRef, text string, controls *Controls) (int, error)
	// SendMedia sends up to MaxMediaGroup files as one message with caption on
	// the first attachment and returns the delivered message ids.
	SendMedia(ctx context.Context, chat models.ChatRef, files []string, caption string) ([]int, error)
	Delete(ctx context.Context, chat models.ChatRef, messageID int) error
	// Copy re-transmits a message by reference and returns the new message id.
	Copy(ctx context.Context, to, from models.ChatRef, messageID int) (int, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
	// Run delivers events until ctx is done.
	Run(ctx context.Context, handlers BotHandlers) error
}

// SourceHandler receives one new message from a watched channel.
type SourceHandler func(ctx context.Context, event models.SourceEvent)

// Source is the user-session side that reads source channels.
type Source interface {
	// Run delivers new messages of watched channels until ctx is done.
	Run(ctx context.Context, handler SourceHandler) error
	RecentMessages(ctx context.Context, channel models.SourceChannel, limit int) ([]models.SourceMessage, error)
	Download(ctx context.Context, media *models.Media, path string) error
}
