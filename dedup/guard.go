// Package dedup rejects posts already captured from the same source message
// or carrying the same body as a stored post.
package dedup

import (
	"context"
	"fmt"
	"strings"
)

// Lookup is the part of the post store the guard reads.
type Lookup interface {
	ExistsByOrigin(ctx context.Context, channel string, origMessageID int64) (bool, error)
	ExistsByText(ctx context.Context, text string) (bool, error)
}

// Guard runs the identity and content checks against the full store.
type Guard struct {
	store Lookup
}

// NewGuard returns a Guard backed by store.
func NewGuard(store Lookup) *Guard {
	return &Guard{store: store}
}

// SeenOrigin reports whether the (channel, message id) pair is already stored.
func (g *Guard) SeenOrigin(ctx context.Context, channel string, origMessageID int64) (bool, error) {
	seen, err := g.store.ExistsByOrigin(ctx, channel, origMessageID)
	if err != nil {
		return false, fmt.Errorf("identity dedup: %w", err)
	}
	return seen, nil
}

// SeenText reports whether a stored post has the same trimmed text.
func (g *Guard) SeenText(ctx context.Context, text string) (bool, error) {
	seen, err := g.store.ExistsByText(ctx, strings.TrimSpace(text))
	if err != nil {
		return false, fmt.Errorf("content dedup: %w", err)
	}
	return seen, nil
}
