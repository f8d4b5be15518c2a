package utils

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// embedFieldLimit is the longest embed field value Discord accepts, in characters.
const embedFieldLimit = 1024

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// embedSender is the part of a Discord session used for the admin mirror.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Logger writes structured logs and mirrors WARN and ERROR entries to a
// Discord admin channel when one is attached.
type Logger struct {
	zap       *zap.Logger
	mirror    embedSender
	channelID string
}

// NewLogger builds a production zap logger at the given level.
func NewLogger(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{zap: z}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// AttachDiscord enables the admin channel mirror. Only the REST API is used,
// so the session does not need to be opened.
func (l *Logger) AttachDiscord(token, channelID string) error {
	if token == "" || channelID == "" {
		l.zap.Warn("discord admin mirror disabled: bot.discord_token or bot.admin_discord_channel is not set")
		return nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	l.mirror = s
	l.channelID = channelID
	return nil
}

// Zap exposes the underlying logger for field-based logging.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// With returns a logger that adds fields to every entry and shares the mirror.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), mirror: l.mirror, channelID: l.channelID}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

// Info logs an informational message.
func (l *Logger) Info(module, operation, details string) {
	l.zap.Info(details, zap.String("module", module), zap.String("operation", operation))
}

// Warn logs a warning message.
func (l *Logger) Warn(module, operation, details string) {
	l.zap.Warn(details, zap.String("module", module), zap.String("operation", operation))
	l.send("WARN", ColorWarn, module, operation, details)
}

// Error logs an error message.
func (l *Logger) Error(module, operation, details string) {
	l.zap.Error(details, zap.String("module", module), zap.String("operation", operation))
	l.send("ERROR", ColorError, module, operation, details)
}

func (l *Logger) send(level string, color int, module, operation, details string) {
	if l.mirror == nil || l.channelID == "" {
		return
	}
	if utf8.RuneCountInString(details) > embedFieldLimit {
		details = string([]rune(details)[:embedFieldLimit-3]) + "..."
	}
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: details},
		},
	}
	if _, err := l.mirror.ChannelMessageSendEmbed(l.channelID, embed); err != nil {
		l.zap.Warn("failed to mirror log entry to discord", zap.Error(err))
	}
}
