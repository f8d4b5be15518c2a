package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"channel-relay/models"

	"github.com/jmoiron/sqlx"
)

// PostStore is the durable record of captured posts and their moderation state.
// Every method is a single self-contained statement.
type PostStore struct {
	db *sqlx.DB
}

// NewPostStore wraps an initialized database handle.
func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// Insert stores a new pending post and returns its assigned id. The text is
// trimmed before storage so content dedup compares trimmed bodies.
func (s *PostStore) Insert(ctx context.Context, post *models.Post) (int64, error) {
	row := *post
	row.Text = strings.TrimSpace(row.Text)
	row.Status = models.StatusPending
	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().Unix()
	}

	query := `INSERT INTO posts (channel, orig_message_id, text, media_paths_json, has_media, has_video, owner_message_ids_json, status, created_at)
              VALUES (:channel, :orig_message_id, :text, :media_paths_json, :has_media, :has_video, :owner_message_ids_json, :status, :created_at)`
	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post from %s/%d: %w", row.Channel, row.OrigMessageID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted post id: %w", err)
	}

	post.ID = id
	post.Text = row.Text
	post.Status = row.Status
	post.CreatedAt = row.CreatedAt
	return id, nil
}

// Get loads one post by id.
func (s *PostStore) Get(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post, "SELECT * FROM posts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return &post, nil
}

// ExistsByOrigin reports whether a post was already captured from this source message.
func (s *PostStore) ExistsByOrigin(ctx context.Context, channel string, origMessageID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM posts WHERE channel = ? AND orig_message_id = ?", channel, origMessageID)
	if err != nil {
		return false, fmt.Errorf("failed to check post origin %s/%d: %w", channel, origMessageID, err)
	}
	return n > 0, nil
}

// ExistsByText reports whether a post with the same trimmed body is stored. A
// stored source footer is not part of the body, so a reshare from another
// channel still matches.
func (s *PostStore) ExistsByText(ctx context.Context, text string) (bool, error) {
	body := strings.TrimSpace(text)
	prefix := body + models.SourceFooterPrefix
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM posts WHERE text = ? OR substr(text, 1, ?) = ?",
		body, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return false, fmt.Errorf("failed to check post text: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus moves a pending post to a terminal status. A post that already
// left the pending state is never changed and yields ErrStatusConflict.
func (s *PostStore) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("invalid target status %q for post %d", status, id)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE posts SET status = ? WHERE id = ? AND status = ?", status, id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update status of post %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for post %d: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("post %d is %s: %w", id, current.Status, ErrStatusConflict)
}

// SetOwnerMessageIDs records the moderator-side message ids presenting a post.
func (s *PostStore) SetOwnerMessageIDs(ctx context.Context, id int64, ids []int) error {
	return s.updateColumn(ctx, id, "owner_message_ids_json", models.JSONList[int](ids))
}

// UpdateMediaPaths replaces the stored media file list of a post.
func (s *PostStore) UpdateMediaPaths(ctx context.Context, id int64, paths []string) error {
	return s.updateColumn(ctx, id, "media_paths_json", models.JSONList[string](paths))
}

func (s *PostStore) updateColumn(ctx context.Context, id int64, column string, value any) error {
	query := fmt.Sprintf("UPDATE posts SET %s = ? WHERE id = ?", column)
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s of post %d: %w", column, id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListPending returns pending posts, newest first.
func (s *PostStore) ListPending(ctx context.Context, limit int) ([]models.PendingPost, error) {
	if limit <= 0 {
		limit = 50
	}
	var posts []models.PendingPost
	err := s.db.SelectContext(ctx, &posts,
		"SELECT id, channel, text, created_at FROM posts WHERE status = ? ORDER BY id DESC LIMIT ?",
		models.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending posts: %w", err)
	}
	return posts, nil
}

// CountByStatus returns the number of posts in each status present in the store.
func (s *PostStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	err := s.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(1) AS count FROM posts GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count posts by status: %w", err)
	}
	return counts, nil
}
