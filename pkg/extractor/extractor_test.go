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

func newTestExtractor() *Extractor {
	return New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func testMappings() salesforce.MappingSet {
	return salesforce.NewMappingSet([]models.ObjectMapping{
		{Prefix: "003", ObjectName: "contacts", SearchProperty: "salesforce_id"},
		{Prefix: "001", ObjectName: "companies", SearchProperty: "salesforce_id"},
	})
}

func TestExtractor_TargetLinks(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	links := []models.ContentDocumentLink{
		{ID: "L1", LinkedEntityID: "003AAA", ContentDocumentID: "069A"},
		{ID: "L2", LinkedEntityID: "001BBB", ContentDocumentID: "069B"},
		{ID: "L3", LinkedEntityID: "500CCC", ContentDocumentID: "069C"},
		{ID: "L4", LinkedEntityID: "0D5DDD", ContentDocumentID: "069D"},
	}

	byPrefix := e.TargetLinks(ctx, links, testMappings())

	assert.Len(t, byPrefix, 2)
	assert.Len(t, byPrefix["003"], 1)
	assert.Len(t, byPrefix["001"], 1)

	t.Run("unmapped and feed entity links are excluded", func(t *testing.T) {
		_, ok := byPrefix["500"]
		assert.False(t, ok)
		_, ok = byPrefix["0D5"]
		assert.False(t, ok)
	})
}

func TestExtractor_FileUnits(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	linksByPrefix := map[string][]models.ContentDocumentLink{
		"003": {
			{ID: "L1", LinkedEntityID: "003AAA", ContentDocumentID: "069A"},
			{ID: "L2", LinkedEntityID: "003AAA", ContentDocumentID: "069B"},
			{ID: "L3", LinkedEntityID: "003AAA", ContentDocumentID: "069A"}, // duplicate
			{ID: "L4", LinkedEntityID: "003ZZZ", ContentDocumentID: "069X"}, // no file info
		},
	}
	fileInfo := map[string]models.ContentVersion{
		"069A": {ID: "068A", ContentDocumentID: "069A", PathOnClient: "a.pdf"},
		"069B": {ID: "068B", ContentDocumentID: "069B", PathOnClient: "b.pdf"},
	}

	units := e.FileUnits(ctx, linksByPrefix, testMappings(), fileInfo)

	require.Len(t, units["003"], 1)
	unit := units["003"][0]

	t.Run("document IDs deduplicate per parent", func(t *testing.T) {
		assert.Equal(t, []string{"069A", "069B"}, unit.DocumentIDs)
		assert.Len(t, unit.Versions, 2)
	})

	t.Run("parents with no loadable documents produce no unit", func(t *testing.T) {
		for _, u := range units["003"] {
			assert.NotEqual(t, "003ZZZ", u.ParentID)
		}
	})

	t.Run("object name comes from the mapping", func(t *testing.T) {
		assert.Equal(t, "contacts", unit.ObjectName)
	})
}

func TestWantedDocuments(t *testing.T) {
	wanted := WantedDocuments(map[string][]models.ContentDocumentLink{
		"003": {
			{LinkedEntityID: "003AAA", ContentDocumentID: "069A"},
			{LinkedEntityID: "003BBB", ContentDocumentID: "069A"},
			{LinkedEntityID: "003BBB", ContentDocumentID: "069B"},
		},
	})
	assert.Len(t, wanted, 2)
}
