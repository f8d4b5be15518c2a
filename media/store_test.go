package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", Extension("image/png"))
	assert.Equal(t, ".webp", Extension("image/webp"))
	assert.Equal(t, ".gif", Extension("image/gif"))
	assert.Equal(t, ".mp4", Extension("video/mp4"))
	assert.Equal(t, ".mp4", Extension("video/quicktime"))
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".jpg", Extension(""))
}

func TestIsVideo(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, IsVideo(filepath.Join(dir, "clip.MOV")))

	// PNG signature without a telling extension.
	png := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000000000000000"), 0644))
	assert.False(t, IsVideo(png))

	// ISO base media header with an mp4 brand.
	mp4 := filepath.Join(dir, "blob2")
	require.NoError(t, os.WriteFile(mp4, []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), 0644))
	assert.True(t, IsVideo(mp4))

	assert.False(t, IsVideo(filepath.Join(dir, "missing.jpg")))
}

func TestStore_StagingPath(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "1001234_42.png"), s.StagingPath(1001234, 42, "image/png"))
	assert.Equal(t, filepath.Join(s.Dir(), "7_1.jpg"), s.StagingPath(7, 1, ""))
	// Channels with titles that share no Latin characters still get distinct names.
	assert.NotEqual(t, s.StagingPath(11, 5, "image/jpeg"), s.StagingPath(12, 5, "image/jpeg"))
}

func TestStore_Promote(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a := s.StagingPath(3, 1, "image/jpeg")
	b := s.StagingPath(3, 2, "video/mp4")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))
	missing := s.StagingPath(3, 3, "")

	paths, err := s.Promote(9, []string{a, missing, b})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(s.Dir(), "post_9_0.jpg"),
		filepath.Join(s.Dir(), "post_9_2.mp4"),
	}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, move(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.NoFileExists(t, src)
}

func TestStore_CleanupStale(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	old := filepath.Join(s.Dir(), "old.jpg")
	kept := filepath.Join(s.Dir(), "kept.jpg")
	fresh := filepath.Join(s.Dir(), "fresh.jpg")
	for _, p := range []string{old, kept, fresh} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(kept, past, past))

	n, err := s.CleanupStale(map[string]bool{kept: true}, 24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, kept)
	assert.FileExists(t, fresh)
}

func TestStore_Discard(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	p := filepath.Join(s.Dir(), "x.jpg")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	s.Discard([]string{p, filepath.Join(s.Dir(), "nope")})
	assert.NoFileExists(t, p)
}
