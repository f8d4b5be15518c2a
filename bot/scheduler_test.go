package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"channel-relay/database"
	"channel-relay/media"
	"channel-relay/models"
	"channel-relay/transport/transporttest"
	"channel-relay/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobs(t *testing.T) (*jobs, *transporttest.Bot) {
	t.Helper()
	db, err := database.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)

	bot := transporttest.NewBot()
	return &jobs{
		store:      database.NewPostStore(db),
		media:      store,
		bot:        bot,
		moderator:  "42",
		staleAfter: time.Hour,
		log:        utils.NewNopLogger(),
	}, bot
}

func TestPendingDigest_SkipsEmptyQueue(t *testing.T) {
	j, bot := newJobs(t)
	require.NoError(t, j.pendingDigest(context.Background()))
	assert.Empty(t, bot.Sent)
}

func TestPendingDigest_SendsSummary(t *testing.T) {
	j, bot := newJobs(t)
	ctx := context.Background()
	_, err := j.store.Insert(ctx, &models.Post{Channel: "news", OrigMessageID: 1, Text: "first"})
	require.NoError(t, err)

	require.NoError(t, j.pendingDigest(ctx))
	sent := bot.To("42")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Pending posts: 1")
	assert.Contains(t, sent[0].Text, "first")
}

func TestCleanupMedia_KeepsPendingAndFreshFiles(t *testing.T) {
	j, _ := newJobs(t)
	ctx := context.Background()
	dir := j.media.Dir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	write := func(name string, mod time.Time) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(p, mod, mod))
		return p
	}
	pending := write("post_1_0.jpg", old)
	stale := write("post_9_0.jpg", old)
	fresh := write("1_5.jpg", now)

	id, err := j.store.Insert(ctx, &models.Post{Channel: "news", OrigMessageID: 1, Text: "with media"})
	require.NoError(t, err)
	require.NoError(t, j.store.UpdateMediaPaths(ctx, id, []string{pending}))

	removed, err := j.cleanupMedia(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.FileExists(t, pending)
	assert.FileExists(t, fresh)
	assert.NoFileExists(t, stale)
}

func TestStartScheduler_RejectsBadSpec(t *testing.T) {
	j, _ := newJobs(t)
	err := startScheduler(context.Background(), models.SchedulerConfig{PendingDigest: "every other tuesday"}, j)
	assert.ErrorContains(t, err, "scheduler.pending_digest")
	stopScheduler()
}

func TestStartScheduler_EmptySpecsDisableJobs(t *testing.T) {
	j, _ := newJobs(t)
	require.NoError(t, startScheduler(context.Background(), models.SchedulerConfig{}, j))
	assert.Empty(t, c.Entries())
	stopScheduler()
	assert.Nil(t, c)
}
