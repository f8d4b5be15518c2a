package utils

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMirror struct {
	embeds []*discordgo.MessageEmbed
	err    error
}

func (f *fakeMirror) ChannelMessageSendEmbed(_ string, e *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds = append(f.embeds, e)
	return &discordgo.Message{}, f.err
}

func newObserved() (*Logger, *observer.ObservedLogs, *fakeMirror) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := &fakeMirror{}
	return &Logger{zap: zap.New(core), mirror: m, channelID: "admin"}, logs, m
}

func TestLogger_MirrorsWarnAndError(t *testing.T) {
	l, logs, m := newObserved()

	l.Info("ingest", "capture", "stored post 1")
	l.Warn("ingest", "download", "media skipped")
	l.Error("moderation", "publish", "both paths failed")

	assert.Equal(t, 3, logs.Len())
	require.Len(t, m.embeds, 2)
	assert.Equal(t, "Log Level: WARN", m.embeds[0].Title)
	assert.Equal(t, ColorError, m.embeds[1].Color)
	assert.Equal(t, "both paths failed", m.embeds[1].Fields[2].Value)

	entry := logs.All()[0]
	assert.Equal(t, "stored post 1", entry.Message)
	assert.Equal(t, "ingest", entry.ContextMap()["module"])
}

func TestLogger_MirrorFailureStaysLocal(t *testing.T) {
	l, logs, m := newObserved()
	m.err = errors.New("discord down")

	assert.NotPanics(t, func() { l.Error("bot", "start", "boom") })
	assert.Equal(t, 1, logs.FilterMessage("failed to mirror log entry to discord").Len())
}

func TestLogger_TruncatesDetailsOnRuneBoundary(t *testing.T) {
	l, _, m := newObserved()
	l.Warn("ingest", "capture", strings.Repeat("я", 2000))

	require.Len(t, m.embeds, 1)
	details := m.embeds[0].Fields[2].Value
	assert.True(t, utf8.ValidString(details))
	assert.Equal(t, embedFieldLimit, utf8.RuneCountInString(details))
	assert.True(t, strings.HasSuffix(details, "я..."))
}

func TestLogger_WithKeepsMirror(t *testing.T) {
	l, logs, m := newObserved()
	l.With(zap.String("task", "abc")).Warn("ingest", "capture", "x")

	require.Len(t, m.embeds, 1)
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["task"])
}

func TestNewLogger_RejectsBadLevel(t *testing.T) {
	_, err := NewLogger("loud")
	assert.Error(t, err)
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l.Zap())
}

func TestAuth_IsModerator(t *testing.T) {
	a := NewAuth(42)
	assert.True(t, a.IsModerator(42))
	assert.False(t, a.IsModerator(7))
	assert.False(t, NewAuth(0).IsModerator(0))
}
