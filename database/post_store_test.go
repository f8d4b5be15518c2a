package database

import (
	"context"
	"testing"

	"channel-relay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PostStore {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostStore(db)
}

func insertPost(t *testing.T, s *PostStore, channel string, orig int64, text string) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), &models.Post{Channel: channel, OrigMessageID: orig, Text: text})
	require.NoError(t, err)
	return id
}

func TestPostStore_InsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post := &models.Post{
		Channel:       "news",
		OrigMessageID: 7,
		Text:          "  <b>hello</b>\n",
		MediaPaths:    models.JSONList[string]{"media/7_0.jpg"},
		HasMedia:      true,
	}
	id, err := s.Insert(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, id, post.ID)
	assert.Equal(t, models.StatusPending, post.Status)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "<b>hello</b>", got.Text)
	assert.Equal(t, "news", got.Channel)
	assert.Equal(t, int64(7), got.OrigMessageID)
	assert.Equal(t, models.JSONList[string]{"media/7_0.jpg"}, got.MediaPaths)
	assert.True(t, got.HasMedia)
	assert.False(t, got.HasVideo)
	assert.Empty(t, got.OwnerMessageIDs)
	assert.NotZero(t, got.CreatedAt)
}

func TestPostStore_IdsIncrease(t *testing.T) {
	s := newTestStore(t)
	a := insertPost(t, s, "c", 1, "a")
	b := insertPost(t, s, "c", 2, "b")
	assert.Greater(t, b, a)
}

func TestPostStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostStore_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertPost(t, s, "news", 5, "same body")

	ok, err := s.ExistsByOrigin(ctx, "news", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ExistsByOrigin(ctx, "news", 6)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.ExistsByOrigin(ctx, "other", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ExistsByText(ctx, "\n same body  ")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ExistsByText(ctx, "Same body")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostStore_ExistsByTextIgnoresSourceFooter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertPost(t, s, "news", 1, "Привет, <b>мир</b>"+models.SourceFooterPrefix+"@news")

	ok, err := s.ExistsByText(ctx, "Привет, <b>мир</b>")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, body := range []string{"Привет,", "Привет, <b>мир</b> и всё"} {
		ok, err = s.ExistsByText(ctx, body)
		require.NoError(t, err)
		assert.False(t, ok, body)
	}
}

func TestPostStore_UpdateStatusIsForwardOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertPost(t, s, "c", 1, "x")

	require.NoError(t, s.UpdateStatus(ctx, id, models.StatusRejected))
	err := s.UpdateStatus(ctx, id, models.StatusPublished)
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)

	assert.Error(t, s.UpdateStatus(ctx, id, models.StatusPending))
	assert.ErrorIs(t, s.UpdateStatus(ctx, 404, models.StatusError), ErrNotFound)
}

func TestPostStore_OwnerIDsAndMediaPaths(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertPost(t, s, "c", 1, "x")

	require.NoError(t, s.SetOwnerMessageIDs(ctx, id, []int{10, 11, 12}))
	require.NoError(t, s.UpdateMediaPaths(ctx, id, []string{"media/post_1_0.jpg"}))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.JSONList[int]{10, 11, 12}, got.OwnerMessageIDs)
	assert.Equal(t, models.JSONList[string]{"media/post_1_0.jpg"}, got.MediaPaths)

	assert.ErrorIs(t, s.SetOwnerMessageIDs(ctx, 77, nil), ErrNotFound)
}

func TestPostStore_ListPendingAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := insertPost(t, s, "c", 1, "one")
	second := insertPost(t, s, "c", 2, "two")
	third := insertPost(t, s, "c", 3, "three")
	require.NoError(t, s.UpdateStatus(ctx, second, models.StatusPublished))

	pending, err := s.ListPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, third, pending[0].ID)
	assert.Equal(t, first, pending[1].ID)

	limited, err := s.ListPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusPending, Count: 2},
		{Status: models.StatusPublished, Count: 1},
	}, counts)
}

func TestPostStore_PendingMediaPaths(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := insertPost(t, s, "c", 1, "a")
	b := insertPost(t, s, "c", 2, "b")
	require.NoError(t, s.UpdateMediaPaths(ctx, a, []string{"m/a.jpg"}))
	require.NoError(t, s.UpdateMediaPaths(ctx, b, []string{"m/b.jpg"}))
	require.NoError(t, s.UpdateStatus(ctx, b, models.StatusPublished))

	paths, err := s.PendingMediaPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m/a.jpg": true}, paths)
}
