package extractor

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/salesforce"
)

func newTestTranslator() *salesforce.Translator {
	return salesforce.NewTranslator([]models.ContentVersion{
		{ID: "068A", ContentDocumentID: "069A"},
		{ID: "068B", ContentDocumentID: "069B"},
	}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestExtractor_AttachmentRefs_Union(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	targets := map[string]struct{}{"0D5ITEM1": {}}

	links := []models.ContentDocumentLink{
		{LinkedEntityID: "0D5ITEM1", ContentDocumentID: "069A"},
		{LinkedEntityID: "0D5OTHER", ContentDocumentID: "069C"}, // not a target
		{LinkedEntityID: "0D7COMM1", ContentDocumentID: "069B"},
		{LinkedEntityID: "003AAA", ContentDocumentID: "069D"}, // not a feed entity
	}
	feedAttachments := []models.FeedAttachment{
		{FeedEntityID: "0D5ITEM1", RecordID: "068A", Type: "Content"},
		{FeedEntityID: "0D5ITEM1", RecordID: "069E", Type: "InlineImage"},
		{FeedEntityID: "0D5ITEM1", RecordID: "069F", Type: "Link"}, // wrong type
	}

	refs := e.AttachmentRefs(ctx, links, feedAttachments, targets)

	t.Run("both sources contribute to a feed item", func(t *testing.T) {
		require.Len(t, refs["0D5ITEM1"], 3)
		assert.Equal(t, models.AttachmentRefDirect, refs["0D5ITEM1"][0].Kind)
		assert.Equal(t, models.AttachmentRefVersion, refs["0D5ITEM1"][1].Kind)
	})

	t.Run("comment links are kept under the comment ID", func(t *testing.T) {
		require.Len(t, refs["0D7COMM1"], 1)
		assert.Equal(t, "069B", refs["0D7COMM1"][0].ID)
	})

	t.Run("non-target items and non-content types are excluded", func(t *testing.T) {
		_, ok := refs["0D5OTHER"]
		assert.False(t, ok)
		_, ok = refs["003AAA"]
		assert.False(t, ok)
	})
}

func TestExtractor_ChatterUnits(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()
	translator := newTestTranslator()

	itemsByPrefix := map[string][]models.FeedItem{
		"003": {
			{ID: "0D5I2", ParentID: "003AAA", Body: "second", CreatedDate: "2023-05-02T10:00:00Z"},
			{ID: "0D5I1", ParentID: "003AAA", Body: "first", CreatedDate: "2023-05-01T10:00:00Z"},
			{ID: "0D5I3", ParentID: "003AAA", Body: "third", CreatedDate: "2023-05-03T10:00:00Z"},
		},
	}
	commentsByItem := map[string][]models.FeedComment{
		"0D5I1": {
			{ID: "0D7C2", FeedItemID: "0D5I1", CommentBody: "later", CreatedDate: "2023-05-01T12:00:00Z"},
			{ID: "0D7C1", FeedItemID: "0D5I1", CommentBody: "earlier", CreatedDate: "2023-05-01T11:00:00Z", RelatedRecordID: "068A"},
		},
	}
	refsByEntity := map[string][]models.AttachmentRef{
		"0D5I1": {
			{Kind: models.AttachmentRefDirect, ID: "069A"},
			{Kind: models.AttachmentRefVersion, ID: "068A"}, // translates to 069A, duplicate
			{Kind: models.AttachmentRefVersion, ID: "068B"},
		},
	}

	units := e.ChatterUnits(ctx, itemsByPrefix, commentsByItem, refsByEntity, translator, testMappings())

	require.Len(t, units["003"], 1)
	unit := units["003"][0]
	require.Len(t, unit.Posts, 3)

	t.Run("posts sort ascending by created date", func(t *testing.T) {
		assert.Equal(t, "first", unit.Posts[0].Item.Body)
		assert.Equal(t, "second", unit.Posts[1].Item.Body)
		assert.Equal(t, "third", unit.Posts[2].Item.Body)
	})

	t.Run("comments sort ascending by created date", func(t *testing.T) {
		require.Len(t, unit.Posts[0].Comments, 2)
		assert.Equal(t, "earlier", unit.Posts[0].Comments[0].CommentBody)
		assert.Equal(t, "later", unit.Posts[0].Comments[1].CommentBody)
	})

	t.Run("attachments dedup after translation", func(t *testing.T) {
		assert.Equal(t, []string{"069A", "069B"}, unit.Posts[0].Attachments)
	})

	t.Run("comment related record becomes a comment attachment", func(t *testing.T) {
		assert.Equal(t, []string{"069A"}, unit.Posts[0].CommentAttachments["0D7C1"])
	})

	t.Run("posts without attachments carry none", func(t *testing.T) {
		assert.Empty(t, unit.Posts[1].Attachments)
	})
}

func TestExtractor_FeedItemsByPrefix(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	items := []models.FeedItem{
		{ID: "0D5I1", ParentID: "003AAA"},
		{ID: "0D5I2", ParentID: "500BBB"},
		{ID: "0D5I3", ParentID: "001CCC"},
	}

	byPrefix := e.FeedItemsByPrefix(ctx, items, testMappings())
	assert.Len(t, byPrefix, 2)
	assert.Len(t, byPrefix["003"], 1)
	assert.Len(t, byPrefix["001"], 1)
}
