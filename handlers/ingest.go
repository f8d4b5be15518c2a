package handlers

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"channel-relay/dedup"
	"channel-relay/filter"
	"channel-relay/markup"
	"channel-relay/media"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"

	"go.uber.org/zap"
)

// PostWriter is the part of the post store the capture path writes to.
type PostWriter interface {
	Insert(ctx context.Context, post *models.Post) (int64, error)
	UpdateMediaPaths(ctx context.Context, id int64, paths []string) error
}

// Submitter hands stored posts to moderation.
type Submitter interface {
	Submit(ctx context.Context, post *models.Post) error
}

// Capture turns source events into stored posts and submits them.
type Capture struct {
	Source    transport.Source
	Bot       transport.Bot
	Filter    *filter.Filter
	Guard     *dedup.Guard
	Store     PostWriter
	Media     *media.Store
	Moderator Submitter
	Config    models.IngestConfig
	// AlertTo receives alert-word notifications.
	AlertTo models.ChatRef
	Log     *utils.Logger
}

// Listener returns a source handler running each event as its own task.
func (c *Capture) Listener(d *Dispatcher) transport.SourceHandler {
	return func(ctx context.Context, ev models.SourceEvent) {
		d.Go(ctx, "Capture", func(ctx context.Context) error {
			return c.Handle(ctx, ev)
		})
	}
}

// Handle runs the capture path for one source message: identity dedup,
// blacklist scrubbing and rendering, stop words, footer, content dedup, alert
// words, grouping and media download, storage and submission. Filtered posts
// return nil.
func (c *Capture) Handle(ctx context.Context, ev models.SourceEvent) error {
	channel := ev.Channel.Name()
	msg := ev.Message
	log := c.Log.With(zap.String("channel", channel), zap.Int64("message_id", msg.ID))

	seen, err := c.Guard.SeenOrigin(ctx, channel, msg.ID)
	if err != nil {
		return err
	}
	if seen {
		log.Info("Capture", "Filter", "dropped: duplicate source message")
		return nil
	}

	spans := markup.Spans(msg.Text, msg.Annotations)
	clean, spans := c.Filter.Blacklist().Sanitize(msg.Text, spans)
	if strings.TrimSpace(clean) == "" {
		log.Info("Capture", "Filter", "dropped: empty after blacklist")
		return nil
	}
	text := markup.RenderSpans(clean, spans)

	if v := c.Filter.Classify(text); v.Drop {
		log.Info("Capture", "Filter", fmt.Sprintf("dropped: %s %q", v.Reason, v.Word))
		return nil
	}

	text = strings.TrimSpace(text)
	seen, err = c.Guard.SeenText(ctx, text)
	if err != nil {
		return err
	}
	if seen {
		log.Info("Capture", "Filter", "dropped: duplicate content")
		return nil
	}
	if c.Config.SourceFooter {
		text += sourceFooter(ev.Channel)
	}

	if word, ok := c.Filter.AlertWord(text); ok {
		c.alert(ctx, log, channel, word, text)
	}

	group := c.gather(ctx, log, ev)
	staged, hasVideo := c.download(ctx, log, ev.Channel.ID, group)

	post := &models.Post{
		Channel:       channel,
		OrigMessageID: msg.ID,
		Text:          text,
		MediaPaths:    staged,
		HasMedia:      len(staged) > 0,
		HasVideo:      hasVideo,
	}
	if _, err := c.Store.Insert(ctx, post); err != nil {
		c.Media.Discard(staged)
		return err
	}
	log.Info("Capture", "Store", fmt.Sprintf("stored post %d with %d attachments", post.ID, len(staged)))

	if len(staged) > 0 {
		paths, err := c.Media.Promote(post.ID, staged)
		if err != nil {
			log.Warn("Capture", "Media", fmt.Sprintf("post %d: %v", post.ID, err))
		}
		if err := c.Store.UpdateMediaPaths(ctx, post.ID, paths); err != nil {
			return err
		}
		post.MediaPaths = paths
	}

	return c.Moderator.Submit(ctx, post)
}

// gather returns the messages making up the post in ascending id order. A
// grouped message waits for the rest of the group to arrive, then collects
// it from recent history.
func (c *Capture) gather(ctx context.Context, log *utils.Logger, ev models.SourceEvent) []models.SourceMessage {
	msg := ev.Message
	if msg.GroupID == 0 {
		return []models.SourceMessage{msg}
	}

	if c.Config.GroupSettle > 0 {
		select {
		case <-ctx.Done():
			return []models.SourceMessage{msg}
		case <-time.After(c.Config.GroupSettle):
		}
	}

	recent, err := c.Source.RecentMessages(ctx, ev.Channel, c.Config.HistoryLimit)
	if err != nil {
		log.Warn("Capture", "Group", fmt.Sprintf("failed to fetch group %d: %v", msg.GroupID, err))
		return []models.SourceMessage{msg}
	}

	group := []models.SourceMessage{msg}
	for _, m := range recent {
		if m.GroupID == msg.GroupID && m.ID != msg.ID {
			group = append(group, m)
		}
	}
	sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	return group
}

// download stages the attachments of msgs. Failed downloads are skipped.
func (c *Capture) download(ctx context.Context, log *utils.Logger, channelID int64, msgs []models.SourceMessage) ([]string, bool) {
	var paths []string
	hasVideo := false
	for _, m := range msgs {
		if m.Media == nil {
			continue
		}
		if m.Media.IsVideo() {
			hasVideo = true
			if !c.Config.DownloadVideo {
				continue
			}
		}
		path := c.Media.StagingPath(channelID, m.ID, m.Media.MIMEType)
		if err := c.Source.Download(ctx, m.Media, path); err != nil {
			log.Warn("Capture", "Media", fmt.Sprintf("failed to download media of message %d: %v", m.ID, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, hasVideo
}

func (c *Capture) alert(ctx context.Context, log *utils.Logger, channel, word, text string) {
	head := fmt.Sprintf("🚨 Alert word <b>%s</b> in a post from %s\n\n", html.EscapeString(word), html.EscapeString(channel))
	for _, part := range markup.Chunks(head+text, markup.MessageLimit, markup.MessageLimit) {
		if _, err := c.Bot.SendText(ctx, c.AlertTo, part, nil); err != nil {
			log.Warn("Capture", "Alert", fmt.Sprintf("failed to send alert: %v", err))
			return
		}
	}
}

func sourceFooter(ch models.SourceChannel) string {
	if ch.Username != "" {
		return models.SourceFooterPrefix + "@" + html.EscapeString(ch.Username)
	}
	return models.SourceFooterPrefix + html.EscapeString(ch.Name())
}
