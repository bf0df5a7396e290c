package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// FileResult is the outcome of processing one file unit.
type FileResult struct {
	FilesCount    int
	FilesUploaded int
	FileIDs       []string
	NoteCreated   bool
	Status        models.UnitStatus
	Reason        string
}

// FilesExecutor migrates file units: every attached version is uploaded
// (or reused from a previous run) and a single note links the files to the
// HubSpot record.
type FilesExecutor struct {
	dest   Destination
	logger ectologger.Logger
}

func NewFilesExecutor(dest Destination, logger ectologger.Logger) *FilesExecutor {
	return &FilesExecutor{dest: dest, logger: logger}
}

// ProcessUnit uploads the unit's files and creates its note. Individual
// upload failures do not abort the unit; they surface in the result's
// status and reason.
func (e *FilesExecutor) ProcessUnit(ctx context.Context, unit models.FileUnit) FileResult {
	ctx, span := tracing.StartSpan(ctx, "FilesExecutor.ProcessUnit")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"parent_id":  unit.ParentID,
		"hubspot_id": unit.HubSpotID,
	})

	result := FileResult{FilesCount: len(unit.Versions)}

	for _, version := range unit.Versions {
		fileID, uploaded, err := ensureFile(ctx, e.dest, e.logger, version)
		if err != nil {
			log.WithError(err).WithField("version_id", version.ID).Warn("failed to upload file, continuing")
			continue
		}
		result.FileIDs = append(result.FileIDs, fileID)
		if uploaded {
			result.FilesUploaded++
		}
	}

	noteFailed := false
	if len(result.FileIDs) > 0 {
		if err := e.dest.CreateNote(ctx, unit.HubSpotID, unit.ObjectName, fileNoteBody, result.FileIDs, time.Now()); err != nil {
			noteFailed = true
			log.WithError(err).Warn("failed to create file note")
		} else {
			result.NoteCreated = true
		}
	}

	// The note is what lands on the record, so its outcome decides the
	// unit status; upload shortfalls only qualify the reason.
	attached := len(result.FileIDs)
	switch {
	case noteFailed:
		result.Status = models.UnitStatusError
		result.Reason = "note creation failed"
	case result.NoteCreated:
		result.Status = models.UnitStatusSuccess
		if attached < result.FilesCount {
			result.Reason = fmt.Sprintf("%d of %d files attached", attached, result.FilesCount)
		}
	default:
		result.Status = models.UnitStatusError
		result.Reason = "all file uploads failed"
	}

	metrics.RecordUnit(unit.ObjectName, string(result.Status))
	return result
}
