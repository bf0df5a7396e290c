package migrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/hubspot"
	"github.com/Ramsey-B/clover/pkg/models"
)

type noteCall struct {
	recordID      string
	objectType    string
	body          string
	attachmentIDs []string
	timestamp     time.Time
}

type fakeDestination struct {
	existing    map[string]string // upload path -> file ID
	uploaded    map[string]string // file name -> assigned ID
	uploadCalls []string
	uploadErr   map[string]error
	statErr     error
	noteErr     error
	notes       []noteCall
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{
		existing:  make(map[string]string),
		uploaded:  make(map[string]string),
		uploadErr: make(map[string]error),
	}
}

func (f *fakeDestination) FileByPath(_ context.Context, path string) (*hubspot.RemoteFile, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	if id, ok := f.existing[path]; ok {
		return &hubspot.RemoteFile{ID: id, Path: path}, nil
	}
	return nil, nil
}

func (f *fakeDestination) UploadBase64(_ context.Context, _, fileName string) (string, error) {
	f.uploadCalls = append(f.uploadCalls, fileName)
	if err, ok := f.uploadErr[fileName]; ok {
		return "", err
	}
	assigned := "up-" + fileName
	f.uploaded[fileName] = assigned
	return assigned, nil
}

func (f *fakeDestination) CreateNote(_ context.Context, recordID, objectType, body string, attachmentIDs []string, timestamp time.Time) error {
	if f.noteErr != nil {
		return f.noteErr
	}
	f.notes = append(f.notes, noteCall{recordID, objectType, body, attachmentIDs, timestamp})
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestUploadFileName(t *testing.T) {
	t.Run("lowercases the extension", func(t *testing.T) {
		name := UploadFileName(models.ContentVersion{ID: "068A", PathOnClient: "Report.PDF"})
		assert.Equal(t, "068A_Report.pdf", name)
	})

	t.Run("splits at the last dot", func(t *testing.T) {
		name := UploadFileName(models.ContentVersion{ID: "068A", PathOnClient: "archive.tar.GZ"})
		assert.Equal(t, "068A_archive.tar.gz", name)
	})

	t.Run("no extension", func(t *testing.T) {
		name := UploadFileName(models.ContentVersion{ID: "068A", PathOnClient: "README"})
		assert.Equal(t, "068A_README", name)
	})
}

func TestFilesExecutor_ProcessUnit(t *testing.T) {
	ctx := context.Background()
	unit := models.FileUnit{
		ParentID:   "003A",
		HubSpotID:  "101",
		ObjectName: "contacts",
		Versions: []models.ContentVersion{
			{ID: "068A", ContentDocumentID: "069A", PathOnClient: "a.pdf", VersionData: "QQ=="},
			{ID: "068B", ContentDocumentID: "069B", PathOnClient: "b.txt", VersionData: "Qg=="},
		},
		DocumentIDs: []string{"069A", "069B"},
	}

	t.Run("uploads everything and creates one note", func(t *testing.T) {
		dest := newFakeDestination()
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusSuccess, result.Status)
		assert.Equal(t, 2, result.FilesUploaded)
		assert.True(t, result.NoteCreated)
		assert.Equal(t, []string{"068A_a.pdf", "068B_b.txt"}, dest.uploadCalls)

		require.Len(t, dest.notes, 1)
		note := dest.notes[0]
		assert.Equal(t, "101", note.recordID)
		assert.Equal(t, "contacts", note.objectType)
		assert.Equal(t, "添付ファイル", note.body)
		assert.Len(t, note.attachmentIDs, 2)
	})

	t.Run("reuses files that already exist without counting them as uploads", func(t *testing.T) {
		dest := newFakeDestination()
		dest.existing["salesforce/068A_a.pdf"] = "555"
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusSuccess, result.Status)
		assert.Equal(t, []string{"068B_b.txt"}, dest.uploadCalls, "existing file must not be re-uploaded")
		assert.Equal(t, 1, result.FilesUploaded, "reused files are not fresh uploads")
		assert.Len(t, result.FileIDs, 2, "the note still links both files")
		require.Len(t, dest.notes, 1)
		assert.Contains(t, dest.notes[0].attachmentIDs, "555")
	})

	t.Run("a rerun with every file in place uploads nothing", func(t *testing.T) {
		dest := newFakeDestination()
		dest.existing["salesforce/068A_a.pdf"] = "555"
		dest.existing["salesforce/068B_b.txt"] = "556"
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusSuccess, result.Status)
		assert.Equal(t, 0, result.FilesUploaded)
		assert.Empty(t, dest.uploadCalls)
		assert.Len(t, dest.notes, 1)
	})

	t.Run("one failed upload still succeeds with a qualified reason", func(t *testing.T) {
		dest := newFakeDestination()
		dest.uploadErr["068A_a.pdf"] = errors.New("boom")
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusSuccess, result.Status, "the note landed, so the unit succeeded")
		assert.Equal(t, 1, result.FilesUploaded)
		assert.Equal(t, "1 of 2 files attached", result.Reason)
		assert.Len(t, dest.notes, 1, "note is still created for the uploaded file")
	})

	t.Run("all uploads failing is an error", func(t *testing.T) {
		dest := newFakeDestination()
		dest.statErr = errors.New("unreachable")
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusError, result.Status)
		assert.False(t, result.NoteCreated)
		assert.Empty(t, dest.notes, "no note without uploaded files")
	})

	t.Run("note failure is an error even when every file uploaded", func(t *testing.T) {
		dest := newFakeDestination()
		dest.noteErr = errors.New("boom")
		exec := NewFilesExecutor(dest, testLogger())

		result := exec.ProcessUnit(ctx, unit)
		assert.Equal(t, models.UnitStatusError, result.Status)
		assert.Equal(t, "note creation failed", result.Reason)
		assert.Equal(t, 2, result.FilesUploaded)
		assert.False(t, result.NoteCreated)
	})
}
