package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

var (
	// ErrNotFound is returned when no post has the requested id.
	ErrNotFound = errors.New("post not found")
	// ErrStatusConflict is returned when a post has already left the pending state.
	ErrStatusConflict = errors.New("post status already decided")
)

const postsSchema = `
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel TEXT NOT NULL,
    orig_message_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    media_paths_json TEXT NOT NULL DEFAULT '[]',
    has_media INTEGER NOT NULL DEFAULT 0,
    has_video INTEGER NOT NULL DEFAULT 0,
    owner_message_ids_json TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'pending',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_origin ON posts (channel, orig_message_id);
CREATE INDEX IF NOT EXISTS idx_posts_text ON posts (text);
CREATE INDEX IF NOT EXISTS idx_posts_status ON posts (status);`

// InitDB opens the sqlite database at dbPath and ensures the posts table exists.
// The path ":memory:" opens a private in-memory database.
func InitDB(dbPath string) (*sqlx.DB, error) {
	if dbPath != ":memory:" {
		// Ensure the directory for the database file exists.
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite serializes writers anyway, and an in-memory database lives on a
	// single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(postsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create posts table: %w", err)
	}
	return db, nil
}
