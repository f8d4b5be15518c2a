// Package telegram implements the transport contracts on the Telegram Bot API
// (moderator side) and an MTProto user session (source side).
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"channel-relay/command"
	"channel-relay/media"
	"channel-relay/models"
	"channel-relay/moderation"
	"channel-relay/transport"
	"channel-relay/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is a transport.Bot backed by the Bot API.
type Bot struct {
	api *tgbotapi.BotAPI
	log *utils.Logger
}

var _ transport.Bot = (*Bot)(nil)

// NewBot authenticates with the Bot API.
func NewBot(token string, log *utils.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	log.Info("Bot", "Login", fmt.Sprintf("authorized as @%s", api.Self.UserName))
	return &Bot{api: api, log: log}, nil
}

// RegisterCommands publishes the command list shown by clients.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(command.GetCommandDefinitions()...)); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	return nil
}

func (b *Bot) SendText(_ context.Context, chat models.ChatRef, text string, controls *transport.Controls) (int, error) {
	id, username, err := resolveChat(chat)
	if err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ChannelUsername = username
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if controls != nil {
		msg.ReplyMarkup = decisionKeyboard(controls.PostID)
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to %s: %w", chat, err)
	}
	return sent.MessageID, nil
}

func (b *Bot) SendMedia(_ context.Context, chat models.ChatRef, files []string, caption string) ([]int, error) {
	id, username, err := resolveChat(chat)
	if err != nil {
		return nil, err
	}
	switch {
	case len(files) == 0:
		return nil, errors.New("no media to send")
	case len(files) > transport.MaxMediaGroup:
		return nil, fmt.Errorf("media group of %d exceeds %d", len(files), transport.MaxMediaGroup)
	case len(files) == 1:
		return b.sendSingle(id, username, files[0], caption)
	}

	items := make([]interface{}, 0, len(files))
	for i, f := range files {
		c := ""
		if i == 0 {
			c = caption
		}
		if media.IsVideo(f) {
			v := tgbotapi.NewInputMediaVideo(tgbotapi.FilePath(f))
			v.Caption, v.ParseMode = c, tgbotapi.ModeHTML
			items = append(items, v)
		} else {
			p := tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(f))
			p.Caption, p.ParseMode = c, tgbotapi.ModeHTML
			items = append(items, p)
		}
	}
	group := tgbotapi.NewMediaGroup(id, items)
	group.ChannelUsername = username
	sent, err := b.api.SendMediaGroup(group)
	if err != nil {
		return nil, fmt.Errorf("failed to send media group to %s: %w", chat, err)
	}
	ids := make([]int, len(sent))
	for i, m := range sent {
		ids[i] = m.MessageID
	}
	return ids, nil
}

func (b *Bot) sendSingle(chatID int64, username, file, caption string) ([]int, error) {
	var cfg tgbotapi.Chattable
	if media.IsVideo(file) {
		v := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(file))
		v.ChannelUsername = username
		v.Caption, v.ParseMode = caption, tgbotapi.ModeHTML
		cfg = v
	} else {
		p := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(file))
		p.ChannelUsername = username
		p.Caption, p.ParseMode = caption, tgbotapi.ModeHTML
		cfg = p
	}
	sent, err := b.api.Send(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", file, err)
	}
	return []int{sent.MessageID}, nil
}

func (b *Bot) Delete(_ context.Context, chat models.ChatRef, messageID int) error {
	id, username, err := resolveChat(chat)
	if err != nil {
		return err
	}
	del := tgbotapi.NewDeleteMessage(id, messageID)
	del.ChannelUsername = username
	if _, err := b.api.Request(del); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func (b *Bot) Copy(_ context.Context, to, from models.ChatRef, messageID int) (int, error) {
	toID, toName, err := resolveChat(to)
	if err != nil {
		return 0, err
	}
	fromID, fromName, err := resolveChat(from)
	if err != nil {
		return 0, err
	}
	cp := tgbotapi.NewCopyMessage(toID, fromID, messageID)
	cp.ChannelUsername = toName
	cp.FromChannelUsername = fromName
	res, err := b.api.CopyMessage(cp)
	if err != nil {
		return 0, fmt.Errorf("failed to copy message %d: %w", messageID, err)
	}
	return res.MessageID, nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// Run long-polls updates until ctx is done.
func (b *Bot) Run(ctx context.Context, handlers transport.BotHandlers) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if cb := toCallback(upd); cb != nil && handlers.OnCallback != nil {
				handlers.OnCallback(ctx, *cb)
			}
			if cmd := toCommand(upd); cmd != nil && handlers.OnCommand != nil {
				handlers.OnCommand(ctx, *cmd)
			}
		}
	}
}

// resolveChat turns a ChatRef into a numeric chat id or a channel username.
func resolveChat(chat models.ChatRef) (int64, string, error) {
	s := strings.TrimSpace(string(chat))
	if s == "" {
		return 0, "", errors.New("empty chat reference")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, "", nil
	}
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return 0, s, nil
}

func decisionKeyboard(postID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", moderation.CallbackData(moderation.ActionApprove, postID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", moderation.CallbackData(moderation.ActionReject, postID)),
		),
	)
}

func toCallback(upd tgbotapi.Update) *transport.Callback {
	q := upd.CallbackQuery
	if q == nil || q.From == nil {
		return nil
	}
	cb := &transport.Callback{ID: q.ID, FromID: q.From.ID, Data: q.Data}
	if q.Message != nil {
		cb.MessageID = q.Message.MessageID
		if q.Message.Chat != nil {
			cb.ChatID = q.Message.Chat.ID
		}
	}
	return cb
}

func toCommand(upd tgbotapi.Update) *transport.Command {
	m := upd.Message
	if m == nil || m.From == nil || m.Chat == nil || !m.IsCommand() {
		return nil
	}
	return &transport.Command{
		FromID: m.From.ID,
		ChatID: m.Chat.ID,
		Name:   m.Command(),
		Args:   m.CommandArguments(),
	}
}
