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

// ChatterResult is the outcome of processing one chatter unit.
type ChatterResult struct {
	PostCount    int
	NotesCreated int
	Status       models.UnitStatus
	Reason       string
}

// ChatterExecutor migrates chatter units: one note per feed post, with the
// post's attachments (and its comments' attachments) uploaded and linked
// when file content is available.
type ChatterExecutor struct {
	dest   Destination
	logger ectologger.Logger
}

func NewChatterExecutor(dest Destination, logger ectologger.Logger) *ChatterExecutor {
	return &ChatterExecutor{dest: dest, logger: logger}
}

// ProcessUnit creates one note per post on the unit's HubSpot record. Post
// failures do not abort the unit.
func (e *ChatterExecutor) ProcessUnit(ctx context.Context, unit models.ChatterUnit, fileInfo map[string]models.ContentVersion, users map[string]string) ChatterResult {
	ctx, span := tracing.StartSpan(ctx, "ChatterExecutor.ProcessUnit")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"parent_id":  unit.ParentID,
		"hubspot_id": unit.HubSpotID,
	})

	result := ChatterResult{PostCount: len(unit.Posts)}

	for _, post := range unit.Posts {
		fileIDs := e.uploadAttachments(ctx, post, fileInfo)
		body := RenderChatterNote(post, users)
		timestamp := noteTimestamp(post.Item.CreatedDate)

		if err := e.dest.CreateNote(ctx, unit.HubSpotID, unit.ObjectName, body, fileIDs, timestamp); err != nil {
			log.WithError(err).WithField("feed_item_id", post.Item.ID).Warn("failed to create chatter note, continuing")
			continue
		}
		result.NotesCreated++
	}

	switch {
	case result.NotesCreated == result.PostCount:
		result.Status = models.UnitStatusSuccess
	case result.NotesCreated > 0:
		result.Status = models.UnitStatusPartial
		result.Reason = fmt.Sprintf("%d of %d notes created", result.NotesCreated, result.PostCount)
	default:
		result.Status = models.UnitStatusError
		result.Reason = "all note creations failed"
	}

	metrics.RecordUnit(unit.ObjectName, string(result.Status))
	return result
}

// uploadAttachments uploads the post's attachment documents plus its
// comments' documents, deduplicated in first-seen order. Documents with no
// exported file content are skipped.
func (e *ChatterExecutor) uploadAttachments(ctx context.Context, post models.FeedPost, fileInfo map[string]models.ContentVersion) []string {
	docIDs := make([]string, 0, len(post.Attachments))
	seen := make(map[string]struct{})
	add := func(ids []string) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			docIDs = append(docIDs, id)
		}
	}
	add(post.Attachments)
	for _, comment := range post.Comments {
		add(post.CommentAttachments[comment.ID])
	}

	var fileIDs []string
	for _, docID := range docIDs {
		version, ok := fileInfo[docID]
		if !ok {
			e.logger.WithContext(ctx).WithField("document_id", docID).Debug("no exported content for attachment, skipping")
			continue
		}
		fileID, _, err := ensureFile(ctx, e.dest, e.logger, version)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithField("document_id", docID).Warn("failed to upload attachment, continuing")
			continue
		}
		fileIDs = append(fileIDs, fileID)
	}
	return fileIDs
}

// noteTimestamp parses the feed item's CreatedDate. Unparseable dates fall
// back to the current time so the note is still created.
func noteTimestamp(createdDate string) time.Time {
	if ts, err := time.Parse(time.RFC3339, createdDate); err == nil {
		return ts
	}
	return time.Now()
}
