// Package transporttest provides in-memory transports for tests.
package transporttest

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"channel-relay/models"
	"channel-relay/transport"
)

// Sent records one outgoing message of the fake bot.
type Sent struct {
	ID       int
	Chat     models.ChatRef
	Text     string
	Files    []string
	Controls *transport.Controls
	// CopyOf is the source message id when the message was copied.
	CopyOf int
}

// Bot is a transport.Bot that records everything it is asked to do.
type Bot struct {
	mu      sync.Mutex
	nextID  int
	Sent    []Sent
	Deleted []int
	Answers map[string]string

	SendErr   error
	MediaErr  error
	CopyErr   error
	DeleteErr error
}

var _ transport.Bot = (*Bot)(nil)

// NewBot returns an empty fake bot.
func NewBot() *Bot {
	return &Bot{nextID: 100, Answers: map[string]string{}}
}

func (b *Bot) record(s Sent) int {
	b.nextID++
	s.ID = b.nextID
	b.Sent = append(b.Sent, s)
	return s.ID
}

func (b *Bot) SendText(_ context.Context, chat models.ChatRef, text string, controls *transport.Controls) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return 0, b.SendErr
	}
	return b.record(Sent{Chat: chat, Text: text, Controls: controls}), nil
}

func (b *Bot) SendMedia(_ context.Context, chat models.ChatRef, files []string, caption string) ([]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MediaErr != nil {
		return nil, b.MediaErr
	}
	if len(files) == 0 || len(files) > transport.MaxMediaGroup {
		return nil, errors.New("bad media group size")
	}
	var ids []int
	for i, f := range files {
		s := Sent{Chat: chat, Files: []string{f}}
		if i == 0 {
			s.Text = caption
		}
		ids = append(ids, b.record(s))
	}
	return ids, nil
}

func (b *Bot) Delete(_ context.Context, _ models.ChatRef, messageID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	b.Deleted = append(b.Deleted, messageID)
	return nil
}

func (b *Bot) Copy(_ context.Context, to, _ models.ChatRef, messageID int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CopyErr != nil {
		return 0, b.CopyErr
	}
	return b.record(Sent{Chat: to, CopyOf: messageID}), nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Answers[callbackID] = text
	return nil
}

// Run blocks until ctx is done.
func (b *Bot) Run(ctx context.Context, _ transport.BotHandlers) error {
	<-ctx.Done()
	return nil
}

// To returns the messages sent to chat, in order.
func (b *Bot) To(chat models.ChatRef) []Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Sent
	for _, s := range b.Sent {
		if s.Chat == chat {
			out = append(out, s)
		}
	}
	return out
}

// Source is a transport.Source serving canned channel history.
type Source struct {
	mu       sync.Mutex
	History  map[int64][]models.SourceMessage
	Events   chan models.SourceEvent
	Fetches  int
	FailLoad map[int64]bool
}

var _ transport.Source = (*Source)(nil)

// NewSource returns a fake source with an unbuffered event channel.
func NewSource() *Source {
	return &Source{
		History:  map[int64][]models.SourceMessage{},
		Events:   make(chan models.SourceEvent),
		FailLoad: map[int64]bool{},
	}
}

// Add appends messages to the history of a channel.
func (s *Source) Add(channelID int64, msgs ...models.SourceMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History[channelID] = append(s.History[channelID], msgs...)
}

func (s *Source) Run(ctx context.Context, handler transport.SourceHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.Events:
			handler(ctx, ev)
		}
	}
}

// RecentMessages returns the newest limit messages, newest first.
func (s *Source) RecentMessages(_ context.Context, channel models.SourceChannel, limit int) ([]models.SourceMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetches++
	msgs := append([]models.SourceMessage(nil), s.History[channel.ID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID > msgs[j].ID })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// Download writes a placeholder file. A media Handle of int64 listed in
// FailLoad makes the download fail.
func (s *Source) Download(_ context.Context, media *models.Media, path string) error {
	s.mu.Lock()
	fail := false
	if id, ok := media.Handle.(int64); ok {
		fail = s.FailLoad[id]
	}
	s.mu.Unlock()
	if fail {
		return errors.New("download failed")
	}
	return os.WriteFile(path, []byte(media.MIMEType), 0644)
}
