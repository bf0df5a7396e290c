package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestCollector_Summaries(t *testing.T) {
	t.Run("groups by prefix", func(t *testing.T) {
		c := NewCollector(models.RunKindFiles)
		c.AddFileRow("003", models.FileAuditRow{SalesforceID: "003A", HubSpotObject: "contacts", FilesUploaded: 2, Status: models.UnitStatusSuccess})
		c.AddFileRow("003", models.FileAuditRow{SalesforceID: "003B", HubSpotObject: "contacts", Status: models.UnitStatusSkipped, Reason: "no matching HubSpot record"})
		c.AddFileRow("006", models.FileAuditRow{SalesforceID: "006A", HubSpotObject: "deals", FilesUploaded: 1, Status: models.UnitStatusPartial})

		summaries := c.Summaries()
		require.Len(t, summaries, 2)

		assert.Equal(t, "003", summaries[0].Prefix)
		assert.Equal(t, "contacts", summaries[0].ObjectName)
		assert.Equal(t, 1, summaries[0].SuccessCount)
		assert.Equal(t, 1, summaries[0].SkippedCount)
		assert.Equal(t, 2, summaries[0].UploadedFiles)

		assert.Equal(t, "006", summaries[1].Prefix)
		assert.Equal(t, 1, summaries[1].SuccessCount, "partial units count as successes")
		assert.Equal(t, 1, summaries[1].UploadedFiles)
	})

	t.Run("chatter notes count as uploads", func(t *testing.T) {
		c := NewCollector(models.RunKindChatter)
		c.AddChatterRow("500", models.ChatterAuditRow{SalesforceID: "500A", HubSpotObject: "tickets", FeedItemsCount: 3, NotesCreated: 3, Status: models.UnitStatusSuccess})
		c.AddChatterRow("500", models.ChatterAuditRow{SalesforceID: "500B", HubSpotObject: "tickets", FeedItemsCount: 2, NotesCreated: 0, Status: models.UnitStatusError, Reason: "note creation failed"})

		summaries := c.Summaries()
		require.Len(t, summaries, 1)
		assert.Equal(t, 1, summaries[0].SuccessCount)
		assert.Equal(t, 1, summaries[0].ErrorCount)
		assert.Equal(t, 3, summaries[0].UploadedFiles)
	})
}

func TestWriteFilesCSV(t *testing.T) {
	rows := []models.FileAuditRow{
		{
			SalesforceID:  "003A",
			HubSpotObject: "contacts",
			HubSpotID:     "101",
			RecordURL:     "https://app.hubspot.com/contacts/1/record/0-1/101",
			FilesCount:    2,
			FilesUploaded: 2,
			NoteCreated:   true,
			Status:        models.UnitStatusSuccess,
		},
		{
			SalesforceID:  "003B",
			HubSpotObject: "contacts",
			Status:        models.UnitStatusSkipped,
			Reason:        "no matching HubSpot record",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFilesCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Salesforce ID", "HubSpot Object", "HubSpot Record ID", "HubSpot Record URL",
		"Files Count", "Files Uploaded", "Note Created", "Status", "Reason",
	}, records[0])
	assert.Equal(t, []string{
		"003A", "contacts", "101", "https://app.hubspot.com/contacts/1/record/0-1/101",
		"2", "2", "true", "success", "",
	}, records[1])
	assert.Equal(t, "skipped", records[2][7])
	assert.Equal(t, "no matching HubSpot record", records[2][8])
}

func TestWriteChatterCSV(t *testing.T) {
	rows := []models.ChatterAuditRow{
		{
			SalesforceID:   "500A",
			HubSpotObject:  "tickets",
			HubSpotID:      "900",
			RecordURL:      "https://app.hubspot.com/contacts/1/record/0-5/900",
			FeedItemsCount: 3,
			NotesCreated:   2,
			Status:         models.UnitStatusPartial,
			Reason:         "1 of 3 posts failed",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChatterCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Salesforce Record ID", "HubSpot Object", "HubSpot Record ID", "HubSpot Record URL",
		"Feed Items Count", "Notes Created", "Status", "Reason",
	}, records[0])
	assert.Equal(t, []string{
		"500A", "tickets", "900", "https://app.hubspot.com/contacts/1/record/0-5/900",
		"3", "2", "partial", "1 of 3 posts failed",
	}, records[1])
}

func TestStore(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	store, err := NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	collector := NewCollector(models.RunKindFiles)
	collector.AddFileRow("003", models.FileAuditRow{SalesforceID: "003A", HubSpotObject: "contacts", Status: models.UnitStatusSuccess})

	path, err := store.Save("run-1", collector)
	require.NoError(t, err)
	assert.True(t, store.Exists("run-1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "003A")

	require.NoError(t, store.Remove("run-1"))
	assert.False(t, store.Exists("run-1"))

	// removing twice is fine
	require.NoError(t, store.Remove("run-1"))
}
