// Package media keeps downloaded attachments in a staging directory and
// renames them to stable per-post names once a post id is known.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// Extension picks the file extension for an attachment from its MIME type.
func Extension(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "png"):
		return ".png"
	case strings.Contains(m, "webp"):
		return ".webp"
	case strings.Contains(m, "gif"):
		return ".gif"
	case strings.Contains(m, "mp4"), strings.Contains(m, "video"):
		return ".mp4"
	default:
		return ".jpg"
	}
}

// IsVideo reports whether the file at path should be sent as a video. The
// extension decides when it is a known video container; otherwise the file
// header is sniffed.
func IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if videoExtensions[ext] {
		return true
	}
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Type == "video"
}

// Store manages the media directory.
type Store struct {
	dir string
}

// NewStore ensures dir exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the media directory.
func (s *Store) Dir() string {
	return s.dir
}

// StagingPath returns where the attachment of a source message is downloaded
// before a post id exists. The numeric channel id keeps names unique across
// channels whatever their titles.
func (s *Store) StagingPath(channelID, messageID int64, mimeType string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%d%s", channelID, messageID, Extension(mimeType)))
}

// Promote moves staged files to post_{id}_{index}{ext} and returns the new
// paths. Files that no longer exist are skipped.
func (s *Store) Promote(postID int64, staged []string) ([]string, error) {
	var out []string
	var errs []error
	for idx, p := range staged {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		dst := filepath.Join(s.dir, fmt.Sprintf("post_%d_%d%s", postID, idx, strings.ToLower(filepath.Ext(p))))
		if err := move(p, dst); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, dst)
	}
	return out, errors.Join(errs...)
}

// Discard removes staged files of a dropped post.
func (s *Store) Discard(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// CleanupStale removes regular files in the media directory older than
// maxAge that are not in keep. It returns the number of removed files.
func (s *Store) CleanupStale(keep map[string]bool, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read media directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if keep[path] {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}

// move renames src to dst, copying and deleting when a rename is not possible.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	in.Close()
	_ = os.Remove(src)
	return nil
}
