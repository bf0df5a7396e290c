package migrator

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// fileNoteBody is the body of the note attached to migrated files.
const fileNoteBody = "添付ファイル"

// formatFeedDate turns a Salesforce ISO 8601 timestamp into a readable
// form: the T separator becomes a space and the zone suffix and fractional
// seconds are dropped.
func formatFeedDate(value string) string {
	value = strings.ReplaceAll(value, "T", " ")
	value = strings.ReplaceAll(value, "Z", "")
	if i := strings.Index(value, "."); i >= 0 {
		value = value[:i]
	}
	return value
}

// authorLine renders the post or comment author. When the users export was
// provided the display name is shown, otherwise the raw Salesforce ID.
func authorLine(createdByID string, users map[string]string) string {
	if name, ok := users[createdByID]; ok && name != "" {
		return fmt.Sprintf("<p><strong>投稿者:</strong> %s</p>", name)
	}
	return fmt.Sprintf("<p><strong>投稿者ID:</strong> %s</p>", createdByID)
}

func commentAuthor(createdByID string, users map[string]string) string {
	if name, ok := users[createdByID]; ok && name != "" {
		return "投稿者: " + name
	}
	return "投稿者ID: " + createdByID
}

// RenderChatterNote renders one feed post, with its comments, as the HTML
// body of a HubSpot note.
func RenderChatterNote(post models.FeedPost, users map[string]string) string {
	var b strings.Builder

	b.WriteString("<h3>📝 Chatter投稿</h3>")
	b.WriteString(fmt.Sprintf("<p><strong>投稿日時:</strong> %s</p>", formatFeedDate(post.Item.CreatedDate)))
	b.WriteString(authorLine(post.Item.CreatedByID, users))
	b.WriteString(fmt.Sprintf(`<div style="border-left: 3px solid #0091ae; padding-left: 12px; margin: 12px 0;">%s</div>`, post.Item.Body))

	if len(post.Comments) > 0 {
		b.WriteString(fmt.Sprintf("<h4>💬 コメント (%d件)</h4>", len(post.Comments)))
		for _, comment := range post.Comments {
			b.WriteString(`<div style="margin-left: 20px; border-left: 2px solid #ccc; padding-left: 12px; margin-top: 8px;">`)
			b.WriteString(fmt.Sprintf("<p><strong>%s</strong> - %s</p>", formatFeedDate(comment.CreatedDate), commentAuthor(comment.CreatedByID, users)))
			b.WriteString(fmt.Sprintf("<div>%s</div>", comment.CommentBody))
			b.WriteString("</div>")
		}
	}

	b.WriteString(`<hr style="margin: 16px 0; border: none; border-top: 1px solid #e0e0e0;">`)
	b.WriteString(fmt.Sprintf(`<p style="font-size: 11px; color: #666;">Salesforce FeedItem ID: %s</p>`, post.Item.ID))

	return b.String()
}
