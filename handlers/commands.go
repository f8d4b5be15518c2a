package handlers

import (
	"context"
	"fmt"
	"html"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"channel-relay/command"
	"channel-relay/database"
	"channel-relay/markup"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// PendingLimit caps the pending queue listing.
const PendingLimit = 50

// NoPendingPosts is the summary for an empty queue.
const NoPendingPosts = "No pending posts"

// QueueReader is the read side of the post store used by commands.
type QueueReader interface {
	Get(ctx context.Context, id int64) (*models.Post, error)
	ListPending(ctx context.Context, limit int) ([]models.PendingPost, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// Presenter re-sends a pending post to the moderator.
type Presenter interface {
	Present(ctx context.Context, post *models.Post) error
}

// Commands answers moderator slash commands.
type Commands struct {
	Store     QueueReader
	Presenter Presenter
	Bot       transport.Bot
	Auth      *utils.Auth
	Started   time.Time
	Log       *utils.Logger
}

// Handle dispatches one command. Commands from anyone but the moderator are refused.
func (h *Commands) Handle(ctx context.Context, cmd transport.Command) error {
	chat := models.ChatRef(strconv.FormatInt(cmd.ChatID, 10))
	if !h.Auth.IsModerator(cmd.FromID) {
		return h.reply(ctx, chat, "⛔ Access denied")
	}

	switch cmd.Name {
	case "start", "help":
		return h.reply(ctx, chat, helpText())
	case "ping":
		return h.reply(ctx, chat, "🏓 Pong!")
	case "pending":
		text, err := PendingSummary(ctx, h.Store, PendingLimit)
		if err != nil {
			return err
		}
		return h.reply(ctx, chat, text)
	case "status":
		text, err := h.status(ctx)
		if err != nil {
			return err
		}
		return h.reply(ctx, chat, text)
	case "review":
		return h.review(ctx, chat, cmd.Args)
	default:
		return h.reply(ctx, chat, "🚫 Unknown command. Try /help")
	}
}

func (h *Commands) review(ctx context.Context, chat models.ChatRef, args string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return h.reply(ctx, chat, "Usage: /review &lt;post id&gt;")
	}
	post, err := h.Store.Get(ctx, id)
	if err != nil {
		return h.reply(ctx, chat, html.EscapeString(err.Error()))
	}
	if post.Status != models.StatusPending {
		return h.reply(ctx, chat, fmt.Sprintf("ℹ️ Post #%d is already %s", id, post.Status))
	}
	return h.Presenter.Present(ctx, post)
}

func (h *Commands) status(ctx context.Context) (string, error) {
	counts, err := h.Store.CountByStatus(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<b>Posts</b>\n")
	if len(counts) == 0 {
		b.WriteString("none yet\n")
	}
	for _, c := range counts {
		fmt.Fprintf(&b, "%s: %d\n", c.Status, c.Count)
	}

	b.WriteString("\n<b>Process</b>\n")
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(h.Started).Truncate(time.Second))
	fmt.Fprintf(&b, "Goroutines: %d\n", runtime.NumGoroutine())
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil {
			fmt.Fprintf(&b, "RSS: %d MB\n", info.RSS/1024/1024)
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			fmt.Fprintf(&b, "CPU: %.1f%%\n", cpu)
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fmt.Fprintf(&b, "System memory: %.1f%% (%d MB / %d MB)\n", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}
	return strings.TrimSpace(b.String()), nil
}

func (h *Commands) reply(ctx context.Context, chat models.ChatRef, text string) error {
	_, err := h.Bot.SendText(ctx, chat, text, nil)
	return err
}

func helpText() string {
	var b strings.Builder
	b.WriteString("<b>Commands</b>\n")
	for _, def := range command.GetCommandDefinitions() {
		fmt.Fprintf(&b, "/%s - %s\n", def.Command, html.EscapeString(def.Description))
	}
	return strings.TrimSpace(b.String())
}

// PendingSummary lists pending posts, newest first, one line each.
func PendingSummary(ctx context.Context, store QueueReader, limit int) (string, error) {
	posts, err := store.ListPending(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return NoPendingPosts, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Pending posts: %d</b>\n", len(posts))
	for _, p := range posts {
		fmt.Fprintf(&b, "#%d %s %s: %s\n",
			p.ID,
			time.Unix(p.CreatedAt, 0).UTC().Format("2006-01-02 15:04"),
			html.EscapeString(p.Channel),
			html.EscapeString(markup.Preview(p.Text, 60)))
	}
	return strings.TrimSpace(b.String()), nil
}

var _ QueueReader = (*database.PostStore)(nil)
