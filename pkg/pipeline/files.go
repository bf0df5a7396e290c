package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/hubspot"
	"github.com/Ramsey-B/clover/pkg/migrator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/progress"
	"github.com/Ramsey-B/clover/pkg/salesforce"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const skipReasonNoRecord = "no matching HubSpot record"

func (p *Pipeline) runFiles(run models.MigrationRun, req models.StartFilesRunRequest, state *activeRun) {
	ctx, span := tracing.StartSpan(context.Background(), "Pipeline.runFiles")
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

	links, err := p.reader.ReadLinks(ctx, resolvePath(req.ExportDir, req.LinksCSV))
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}
	versions, err := p.reader.ReadVersions(ctx, resolvePath(req.ExportDir, req.VersionsCSV))
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}
	state.tracker.Emit(models.StepExtractRecords, 20, "export records loaded")

	mappings := salesforce.NewMappingSet(req.Mappings)
	linksByPrefix := p.extract.TargetLinks(ctx, links, mappings)
	wanted := extractor.WantedDocuments(linksByPrefix)
	fileInfo := p.reader.FileInfo(ctx, versions, resolvePath(req.ExportDir, req.FilesDir), wanted)
	state.tracker.Emit(models.StepFileInfo, 35, "file contents indexed")

	unitsByPrefix := p.extract.FileUnits(ctx, linksByPrefix, mappings, fileInfo)

	ids := p.newResolver()
	type prefixedUnit struct {
		prefix string
		unit   models.FileUnit
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
	state.tracker.Emit(models.StepSearch, 50, "destination records resolved")

	exec := migrator.NewFilesExecutor(p.hub, p.logger)
	for i, entry := range units {
		unit := entry.unit
		if unit.HubSpotID == "" {
			state.collector.AddFileRow(entry.prefix, models.FileAuditRow{
				SalesforceID:  unit.ParentID,
				HubSpotObject: unit.ObjectName,
				FilesCount:    len(unit.Versions),
				Status:        models.UnitStatusSkipped,
				Reason:        skipReasonNoRecord,
			})
		} else {
			result := exec.ProcessUnit(ctx, unit)
			state.collector.AddFileRow(entry.prefix, models.FileAuditRow{
				SalesforceID:  unit.ParentID,
				HubSpotObject: unit.ObjectName,
				HubSpotID:     unit.HubSpotID,
				RecordURL:     hubspot.RecordURL(account.UIDomain, account.PortalID, unit.ObjectName, unit.HubSpotID),
				FilesCount:    result.FilesCount,
				FilesUploaded: result.FilesUploaded,
				NoteCreated:   result.NoteCreated,
				Status:        result.Status,
				Reason:        result.Reason,
			})
		}
		state.tracker.Emit(models.StepProcessing, progress.ScalePercent(70, 20, i, len(units)), "processing records")
	}

	log.WithField("units", len(units)).Info("files migration finished")
	p.finishRun(ctx, run, state, started)
}

func sortedPrefixes[T any](byPrefix map[string][]T) []string {
	prefixes := make([]string, 0, len(byPrefix))
	for prefix := range byPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}
