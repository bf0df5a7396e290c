package pipeline

import (
	"context"
	"time"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/hubspot"
	"github.com/Ramsey-B/clover/pkg/migrator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/progress"
	"github.com/Ramsey-B/clover/pkg/salesforce"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func (p *Pipeline) runChatter(run models.MigrationRun, req models.StartChatterRunRequest, state *activeRun) {
	ctx, span := tracing.StartSpan(context.Background(), "Pipeline.runChatter")
	defer span.End()

	started := time.Now()
	log := p.logger.WithContext(ctx).WithField("run_id", run.ID)

	if err := p.runs.MarkRunning(ctx, run.ID); err != nil {
		log.WithError(err).Error("failed to mark run running")
	}
	p.emitter.EmitRunStarted(ctx, &run)
	state.tracker.Emit(models.StepValidation, 5, "inputs validated")

	account, err := p.hub.AccountDetails(ctx)
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}
	state.tracker.Emit(models.StepDestinationInit, 10, "destination account verified")

	items, err := p.reader.ReadFeedItems(ctx, resolvePath(req.ExportDir, req.FeedCSV))
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}
	comments, err := p.reader.ReadComments(ctx, resolvePath(req.ExportDir, req.CommentsCSV))
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}

	var users map[string]string
	if req.UsersCSV != "" {
		users, err = p.reader.ReadUsers(ctx, resolvePath(req.ExportDir, req.UsersCSV))
		if err != nil {
			log.WithError(err).Warn("failed to read users export, author IDs will be shown")
			users = nil
		}
	}
	state.tracker.Emit(models.StepExtractRecords, 20, "export records loaded")

	// Attachment inputs are optional; without them notes carry text only.
	var links []models.ContentDocumentLink
	if req.LinksCSV != "" {
		if links, err = p.reader.ReadLinks(ctx, resolvePath(req.ExportDir, req.LinksCSV)); err != nil {
			p.fail(ctx, run, state, started, err)
			return
		}
	}
	var feedAttachments []models.FeedAttachment
	if req.AttachCSV != "" {
		if feedAttachments, err = p.reader.ReadFeedAttachments(ctx, resolvePath(req.ExportDir, req.AttachCSV)); err != nil {
			p.fail(ctx, run, state, started, err)
			return
		}
	}
	var versions []models.ContentVersion
	if req.VersionsCSV != "" {
		if versions, err = p.reader.ReadVersions(ctx, resolvePath(req.ExportDir, req.VersionsCSV)); err != nil {
			p.fail(ctx, run, state, started, err)
			return
		}
	}

	mappings := salesforce.NewMappingSet(req.Mappings)
	itemsByPrefix := p.extract.FeedItemsByPrefix(ctx, items, mappings)
	targetItems := extractor.TargetFeedItemIDs(itemsByPrefix)
	commentsByItem := p.extract.CommentsByItem(ctx, comments, targetItems)
	refsByEntity := p.extract.AttachmentRefs(ctx, links, feedAttachments, targetItems)
	translator := salesforce.NewTranslator(versions, p.logger)

	unitsByPrefix := p.extract.ChatterUnits(ctx, itemsByPrefix, commentsByItem, refsByEntity, translator, mappings)
	state.tracker.Emit(models.StepFileInfo, 30, "feed records grouped")

	// The files directory only gates payload backfill; inline version
	// metadata still feeds attachment uploads without it.
	var fileInfo map[string]models.ContentVersion
	if len(versions) > 0 {
		filesDir := ""
		if req.FilesDir != "" {
			filesDir = resolvePath(req.ExportDir, req.FilesDir)
		}
		wanted := attachmentDocuments(unitsByPrefix)
		fileInfo = p.reader.FileInfo(ctx, versions, filesDir, wanted)
	}
	state.tracker.Emit(models.StepSearch, 40, "resolving destination records")

	ids := p.newResolver()
	type prefixedUnit struct {
		prefix string
		unit   models.ChatterUnit
	}
	var units []prefixedUnit
	for _, prefix := range sortedPrefixes(unitsByPrefix) {
		mapping := mappings[prefix]
		parentIDs := make([]string, 0, len(unitsByPrefix[prefix]))
		for _, unit := range unitsByPrefix[prefix] {
			parentIDs = append(parentIDs, unit.ParentID)
		}

		resolved, err := ids.Resolve(ctx, mapping, parentIDs)
		if err != nil {
			p.fail(ctx, run, state, started, err)
			return
		}
		for _, unit := range unitsByPrefix[prefix] {
			unit.HubSpotID = resolved[unit.ParentID]
			units = append(units, prefixedUnit{prefix: prefix, unit: unit})
		}
	}
	state.tracker.Emit(models.StepSearch, 60, "destination records resolved")

	exec := migrator.NewChatterExecutor(p.hub, p.logger)
	for i, entry := range units {
		unit := entry.unit
		if unit.HubSpotID == "" {
			state.collector.AddChatterRow(entry.prefix, models.ChatterAuditRow{
				SalesforceID:   unit.ParentID,
				HubSpotObject:  unit.ObjectName,
				FeedItemsCount: len(unit.Posts),
				Status:         models.UnitStatusSkipped,
				Reason:         skipReasonNoRecord,
			})
		} else {
			result := exec.ProcessUnit(ctx, unit, fileInfo, users)
			state.collector.AddChatterRow(entry.prefix, models.ChatterAuditRow{
				SalesforceID:   unit.ParentID,
				HubSpotObject:  unit.ObjectName,
				HubSpotID:      unit.HubSpotID,
				RecordURL:      hubspot.RecordURL(account.UIDomain, account.PortalID, unit.ObjectName, unit.HubSpotID),
				FeedItemsCount: result.PostCount,
				NotesCreated:   result.NotesCreated,
				Status:         result.Status,
				Reason:         result.Reason,
			})
		}
		state.tracker.Emit(models.StepProcessing, progress.ScalePercent(60, 30, i, len(units)), "processing records")
	}

	log.WithField("units", len(units)).Info("chatter migration finished")
	p.finishRun(ctx, run, state, started)
}

// attachmentDocuments collects every document ID referenced by the units'
// posts and comments.
func attachmentDocuments(unitsByPrefix map[string][]models.ChatterUnit) map[string]struct{} {
	wanted := make(map[string]struct{})
	for _, units := range unitsByPrefix {
		for _, unit := range units {
			for _, post := range unit.Posts {
				for _, id := range post.Attachments {
					wanted[id] = struct{}{}
				}
				for _, ids := range post.CommentAttachments {
					for _, id := range ids {
						wanted[id] = struct{}{}
					}
				}
			}
		}
	}
	return wanted
}
