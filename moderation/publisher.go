package moderation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"channel-relay/markup"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"
)

var errNothingToSend = errors.New("post has neither text nor media")

// Publisher delivers approved posts to the target channel.
type Publisher struct {
	bot       transport.Bot
	moderator models.ChatRef
	target    models.ChatRef
	log       *utils.Logger
}

// NewPublisher creates a Publisher copying from the moderator chat to target.
func NewPublisher(bot transport.Bot, moderator, target models.ChatRef, log *utils.Logger) *Publisher {
	return &Publisher{bot: bot, moderator: moderator, target: target, log: log}
}

// Publish first copies the moderator-side presentation messages to the target
// channel. When none exist or none could be copied, the post is rebuilt from
// its stored text and media.
func (p *Publisher) Publish(ctx context.Context, post *models.Post) error {
	copied := 0
	for _, id := range contentMessageIDs(post.OwnerMessageIDs) {
		if _, err := p.bot.Copy(ctx, p.target, p.moderator, id); err != nil {
			p.log.Warn("Publisher", "Copy", fmt.Sprintf("post %d: failed to copy message %d: %v", post.ID, id, err))
			continue
		}
		copied++
	}
	if copied > 0 {
		return nil
	}

	if _, err := Deliver(ctx, p.bot, p.target, post.Text, post.MediaPaths); err != nil {
		return fmt.Errorf("failed to send post %d directly: %w", post.ID, err)
	}
	return nil
}

// contentMessageIDs drops the trailing control message from presentation ids.
func contentMessageIDs(ids []int) []int {
	if len(ids) <= 1 {
		return nil
	}
	return ids[:len(ids)-1]
}

// Deliver sends a post to chat and returns the delivered message ids. Media
// go out in groups of at most transport.MaxMediaGroup with the first caption
// chunk on the first attachment, followed by the remaining text chunks. A post
// without media is sent as text split at the message limit. Media files that
// no longer exist are skipped.
func Deliver(ctx context.Context, bot transport.Bot, chat models.ChatRef, text string, mediaPaths []string) ([]int, error) {
	var files []string
	for _, p := range mediaPaths {
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}

	var ids []int
	chunks := markup.Split(text, markup.MessageLimit)
	if len(files) > 0 {
		chunks = markup.Chunks(text, markup.CaptionLimit, markup.MessageLimit)
		caption := ""
		if len(chunks) > 0 {
			caption, chunks = chunks[0], chunks[1:]
		}
		for start := 0; start < len(files); start += transport.MaxMediaGroup {
			end := min(start+transport.MaxMediaGroup, len(files))
			c := ""
			if start == 0 {
				c = caption
			}
			sent, err := bot.SendMedia(ctx, chat, files[start:end], c)
			if err != nil {
				return ids, fmt.Errorf("failed to send media group: %w", err)
			}
			ids = append(ids, sent...)
		}
	}

	for _, part := range chunks {
		id, err := bot.SendText(ctx, chat, part, nil)
		if err != nil {
			return ids, fmt.Errorf("failed to send text: %w", err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errNothingToSend
	}
	return ids, nil
}
