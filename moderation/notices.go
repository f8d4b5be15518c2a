package moderation

import (
	"fmt"
	"html"

	"channel-relay/models"
)

// Notices are sent as markup, so every interpolated value is escaped.

func noticePublished(id int64) string {
	return fmt.Sprintf("✅ Post #%d published", id)
}

func noticeRejected(id int64) string {
	return fmt.Sprintf("❌ Post #%d rejected", id)
}

func noticePublishFailed(id int64, err error) string {
	return fmt.Sprintf("⚠️ Failed to publish post #%d: %s", id, html.EscapeString(err.Error()))
}

func noticePresentFailed(id int64, err error) string {
	return fmt.Sprintf("⚠️ Failed to present post #%d: %s", id, html.EscapeString(err.Error()))
}

func noticeNotFound(id int64) string {
	return fmt.Sprintf("⚠️ Post #%d not found", id)
}

func noticeAlreadyDecided(id int64, status models.Status) string {
	return fmt.Sprintf("ℹ️ Post #%d is already %s", id, status)
}

func noticeMalformed(data string) string {
	return fmt.Sprintf("⚠️ Unrecognized action %s", html.EscapeString(fmt.Sprintf("%q", data)))
}

// controlText heads the message carrying the decision keyboard.
func controlText(post *models.Post) string {
	return fmt.Sprintf("<b>Post #%d</b>\nSource: %s", post.ID, html.EscapeString(post.Channel))
}
