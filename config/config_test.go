package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
telegram:
  api_id: 123
  api_hash: abc
bot:
  token: t0ken
  moderator_id: 42
  target_channel: "@target"
ingest:
  channels: ["@news", "-1001234"]
  group_settle: 500ms
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfig_DefaultsAndFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), baseYAML)
	writeFile(t, filepath.Join(dir, "config", "filters.json"),
		`{"blacklist": ["join us"], "stop_words": ["casino"], "alert_words": ["urgent"]}`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 123, cfg.Telegram.APIID)
	assert.Equal(t, int64(42), cfg.Bot.ModeratorID)
	assert.Equal(t, []string{"@news", "-1001234"}, cfg.Ingest.Channels)
	assert.Equal(t, 500*time.Millisecond, cfg.Ingest.GroupSettle)
	assert.Equal(t, 20, cfg.Ingest.HistoryLimit)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.True(t, cfg.Ingest.DownloadVideo)
	assert.Equal(t, "data/posts.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Media.StaleAfter)
	assert.Equal(t, "@every 6h", cfg.Scheduler.PendingDigest)

	assert.Equal(t, []string{"join us"}, cfg.Filters.Blacklist)
	assert.Equal(t, []string{"casino"}, cfg.Filters.StopWords)
	assert.Equal(t, []string{"urgent"}, cfg.Filters.AlertWords)
	assert.Equal(t, "42", cfg.Filters.AlertRecipient)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), baseYAML)
	t.Setenv("INGEST_AUTO_MODE", "true")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Ingest.AutoMode)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot.token is required")
	assert.Contains(t, err.Error(), "bot.moderator_id is required")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), baseYAML)
	writeFile(t, filepath.Join(dir, "config", "filters.json"), `{"blacklist": [`)

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "filters.json")
}
