package models

import (
	"strings"

	"channel-relay/markup"
)

// ChatRef addresses a chat on the bot side: a numeric id or an "@username".
type ChatRef string

// SourceChannel identifies the channel a source message was posted in.
type SourceChannel struct {
	ID         int64
	AccessHash int64
	Username   string
	Title      string
}

// Name is the channel identifier stored with a post.
func (c SourceChannel) Name() string {
	if c.Username != "" {
		return c.Username
	}
	if c.Title != "" {
		return c.Title
	}
	return "unknown"
}

// Media describes an attachment of a source message.
type Media struct {
	MIMEType string
	IsPhoto  bool
	// Handle is owned by the session transport and passed back to it on download.
	Handle any
}

// IsVideo reports whether the attachment is a video by its MIME type.
func (m *Media) IsVideo() bool {
	if m == nil {
		return false
	}
	mime := strings.ToLower(m.MIMEType)
	return strings.HasPrefix(mime, "video") || strings.Contains(mime, "mp4")
}

// SourceMessage is a message delivered by the session transport.
type SourceMessage struct {
	ID          int64
	Text        string
	Annotations []markup.Annotation // UTF-16 addressed
	Media       *Media
	GroupID     int64 // 0 when the message is not part of a group
}

// SourceEvent is one new-message event from a watched channel.
type SourceEvent struct {
	Channel SourceChannel
	Message SourceMessage
}
