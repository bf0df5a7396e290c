package migrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func post(id, parentID, body, created, author string) models.FeedPost {
	return models.FeedPost{
		Item: models.FeedItem{
			ID:          id,
			ParentID:    parentID,
			Body:        body,
			CreatedDate: created,
			CreatedByID: author,
		},
	}
}

func TestFormatFeedDate(t *testing.T) {
	assert.Equal(t, "2024-03-01 09:30:00", formatFeedDate("2024-03-01T09:30:00.000Z"))
	assert.Equal(t, "2024-03-01 09:30:00", formatFeedDate("2024-03-01T09:30:00Z"))
	assert.Equal(t, "2024-03-01", formatFeedDate("2024-03-01"))
}

func TestRenderChatterNote(t *testing.T) {
	t.Run("post without comments", func(t *testing.T) {
		p := post("0D5A", "500A", "<p>hello</p>", "2024-03-01T09:30:00.000Z", "005X")

		html := RenderChatterNote(p, nil)
		assert.Contains(t, html, "<h3>📝 Chatter投稿</h3>")
		assert.Contains(t, html, "<p><strong>投稿日時:</strong> 2024-03-01 09:30:00</p>")
		assert.Contains(t, html, "<p><strong>投稿者ID:</strong> 005X</p>")
		assert.Contains(t, html, `<div style="border-left: 3px solid #0091ae; padding-left: 12px; margin: 12px 0;"><p>hello</p></div>`)
		assert.NotContains(t, html, "コメント")
		assert.Contains(t, html, "Salesforce FeedItem ID: 0D5A")
	})

	t.Run("comments render indented with count", func(t *testing.T) {
		p := post("0D5A", "500A", "post", "2024-03-01T09:30:00.000Z", "005X")
		p.Comments = []models.FeedComment{
			{ID: "0D7A", FeedItemID: "0D5A", CommentBody: "first", CreatedDate: "2024-03-01T10:00:00.000Z", CreatedByID: "005Y"},
			{ID: "0D7B", FeedItemID: "0D5A", CommentBody: "second", CreatedDate: "2024-03-01T11:00:00.000Z", CreatedByID: "005Z"},
		}

		html := RenderChatterNote(p, nil)
		assert.Contains(t, html, "<h4>💬 コメント (2件)</h4>")
		assert.Contains(t, html, `<div style="margin-left: 20px; border-left: 2px solid #ccc; padding-left: 12px; margin-top: 8px;">`)
		assert.Contains(t, html, "<p><strong>2024-03-01 10:00:00</strong> - 投稿者ID: 005Y</p>")
		assert.Contains(t, html, "<div>first</div>")
	})

	t.Run("known authors show display names", func(t *testing.T) {
		p := post("0D5A", "500A", "post", "2024-03-01T09:30:00.000Z", "005X")
		p.Comments = []models.FeedComment{
			{ID: "0D7A", CommentBody: "c", CreatedDate: "2024-03-01T10:00:00.000Z", CreatedByID: "005Y"},
		}
		users := map[string]string{"005X": "山田太郎", "005Y": "Suzuki Hanako"}

		html := RenderChatterNote(p, users)
		assert.Contains(t, html, "<p><strong>投稿者:</strong> 山田太郎</p>")
		assert.Contains(t, html, "投稿者: Suzuki Hanako")
		assert.NotContains(t, html, "005X")
	})
}

func TestChatterExecutor_ProcessUnit(t *testing.T) {
	ctx := context.Background()

	unit := models.ChatterUnit{
		ParentID:   "500A",
		HubSpotID:  "900",
		ObjectName: "tickets",
		Posts: []models.FeedPost{
			post("0D5A", "500A", "first post", "2024-03-01T09:00:00.000Z", "005X"),
			post("0D5B", "500A", "second post", "2024-03-02T09:00:00.000Z", "005X"),
			post("0D5C", "500A", "third post", "2024-03-03T09:00:00.000Z", "005X"),
		},
	}

	t.Run("one note per post", func(t *testing.T) {
		dest := newFakeDestination()
		exec := NewChatterExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit, nil, nil)
		assert.Equal(t, models.UnitStatusSuccess, result.Status)
		assert.Equal(t, 3, result.NotesCreated)
		require.Len(t, dest.notes, 3)
		assert.Contains(t, dest.notes[0].body, "first post")
		assert.Equal(t, "tickets", dest.notes[0].objectType)

		want, err := time.Parse(time.RFC3339, "2024-03-01T09:00:00.000Z")
		require.NoError(t, err)
		assert.True(t, dest.notes[0].timestamp.Equal(want))
	})

	t.Run("some notes failing makes the unit partial", func(t *testing.T) {
		calls := 0
		wrapped := &flakyDestination{fakeDestination: newFakeDestination(), failOn: map[int]bool{1: true}, calls: &calls}
		exec := NewChatterExecutor(wrapped, testLogger())

		result := exec.ProcessUnit(ctx, unit, nil, nil)
		assert.Equal(t, models.UnitStatusPartial, result.Status)
		assert.Equal(t, 2, result.NotesCreated)
		assert.Equal(t, "2 of 3 notes created", result.Reason)
	})

	t.Run("all notes failing is an error", func(t *testing.T) {
		dest := newFakeDestination()
		dest.noteErr = errors.New("boom")
		exec := NewChatterExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit, nil, nil)
		assert.Equal(t, models.UnitStatusError, result.Status)
		assert.Equal(t, 0, result.NotesCreated)
	})

	t.Run("attachments upload and link to the note", func(t *testing.T) {
		dest := newFakeDestination()
		exec := NewChatterExecutor(dest, testLogger())

		p := post("0D5A", "500A", "with files", "2024-03-01T09:00:00.000Z", "005X")
		p.Attachments = []string{"069A", "069B"}
		p.Comments = []models.FeedComment{
			{ID: "0D7A", FeedItemID: "0D5A", CommentBody: "c", CreatedDate: "2024-03-01T10:00:00.000Z", CreatedByID: "005X"},
		}
		p.CommentAttachments = map[string][]string{"0D7A": {"069A", "069C"}}

		fileInfo := map[string]models.ContentVersion{
			"069A": {ID: "068A", ContentDocumentID: "069A", PathOnClient: "a.pdf", VersionData: "QQ=="},
			"069B": {ID: "068B", ContentDocumentID: "069B", PathOnClient: "b.txt", VersionData: "Qg=="},
		}

		withFiles := models.ChatterUnit{ParentID: "500A", HubSpotID: "900", ObjectName: "tickets", Posts: []models.FeedPost{p}}
		result := exec.ProcessUnit(ctx, withFiles, fileInfo, nil)
		assert.Equal(t, models.UnitStatusSuccess, result.Status)

		require.Len(t, dest.notes, 1)
		// 069A appears once despite being on both the post and the comment,
		// and 069C has no exported content so it is skipped
		assert.Equal(t, []string{"up-068A_a.pdf", "up-068B_b.txt"}, dest.notes[0].attachmentIDs)
	})
}

// flakyDestination fails CreateNote for selected call indexes.
type flakyDestination struct {
	*fakeDestination
	failOn map[int]bool
	calls  *int
}

func (f *flakyDestination) CreateNote(ctx context.Context, recordID, objectType, body string, attachmentIDs []string, timestamp time.Time) error {
	index := *f.calls
	*f.calls++
	if f.failOn[index] {
		return errors.New("boom")
	}
	return f.fakeDestination.CreateNote(ctx, recordID, objectType, body, attachmentIDs, timestamp)
}
