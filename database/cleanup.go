package database

import (
	"context"
	"fmt"

	"channel-relay/models"
)

// PendingMediaPaths returns the set of media files still referenced by pending
// posts. Staged files outside this set may be removed by the cleanup job.
func (s *PostStore) PendingMediaPaths(ctx context.Context) (map[string]bool, error) {
	var lists []models.JSONList[string]
	err := s.db.SelectContext(ctx, &lists,
		"SELECT media_paths_json FROM posts WHERE status = ?", models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending media paths: %w", err)
	}

	paths := make(map[string]bool)
	for _, list := range lists {
		for _, p := range list {
			paths[p] = true
		}
	}
	return paths, nil
}
