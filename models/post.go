package models

// Status is the moderation state of a captured post.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

// SourceFooterPrefix starts the attribution line appended to a post body.
// Content dedup ignores everything from it on.
const SourceFooterPrefix = "\n\n📢 Source: "

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusRejected || s == StatusError
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected, StatusError:
		return true
	}
	return false
}

// Post represents one captured source post and its moderation record.
type Post struct {
	ID              int64            `db:"id"`
	Channel         string           `db:"channel"`
	OrigMessageID   int64            `db:"orig_message_id"`
	Text            string           `db:"text"`
	MediaPaths      JSONList[string] `db:"media_paths_json"`
	HasMedia        bool             `db:"has_media"`
	HasVideo        bool             `db:"has_video"`
	OwnerMessageIDs JSONList[int]    `db:"owner_message_ids_json"`
	Status          Status           `db:"status"`
	CreatedAt       int64            `db:"created_at"` // Unix timestamp
}

// PendingPost is the short view of a post waiting for a decision.
type PendingPost struct {
	ID        int64  `db:"id"`
	Channel   string `db:"channel"`
	Text      string `db:"text"`
	CreatedAt int64  `db:"created_at"`
}

// StatusCount is one row of the per-status summary.
type StatusCount struct {
	Status Status `db:"status"`
	Count  int64  `db:"count"`
}
