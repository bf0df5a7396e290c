// Package report collects per-record audit rows during a migration run,
// aggregates them into per-object summaries, and renders the audit CSV.
package report

import (
	"sort"
	"sync"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Collector accumulates audit rows and per-prefix summaries for one run.
// It is safe for concurrent use.
type Collector struct {
	mu          sync.Mutex
	kind        models.RunKind
	fileRows    []models.FileAuditRow
	chatterRows []models.ChatterAuditRow
	summaries   map[string]*models.ObjectSummary
}

func NewCollector(kind models.RunKind) *Collector {
	return &Collector{
		kind:      kind,
		summaries: make(map[string]*models.ObjectSummary),
	}
}

func (c *Collector) Kind() models.RunKind {
	return c.kind
}

// AddFileRow records a files-flow audit row and rolls it into the summary
// for the row's ID prefix.
func (c *Collector) AddFileRow(prefix string, row models.FileAuditRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileRows = append(c.fileRows, row)
	summary := c.summary(prefix, row.HubSpotObject)
	summary.UploadedFiles += row.FilesUploaded
	c.count(summary, row.Status)
}

// AddChatterRow records a chatter-flow audit row. Notes count toward the
// summary's uploaded total.
func (c *Collector) AddChatterRow(prefix string, row models.ChatterAuditRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chatterRows = append(c.chatterRows, row)
	summary := c.summary(prefix, row.HubSpotObject)
	summary.UploadedFiles += row.NotesCreated
	c.count(summary, row.Status)
}

func (c *Collector) summary(prefix, objectName string) *models.ObjectSummary {
	if existing, ok := c.summaries[prefix]; ok {
		return existing
	}
	created := &models.ObjectSummary{Prefix: prefix, ObjectName: objectName}
	c.summaries[prefix] = created
	return created
}

func (c *Collector) count(summary *models.ObjectSummary, status models.UnitStatus) {
	switch status {
	case models.UnitStatusSuccess, models.UnitStatusPartial:
		summary.SuccessCount++
	case models.UnitStatusSkipped:
		summary.SkippedCount++
	default:
		summary.ErrorCount++
	}
}

// Summaries returns the per-prefix summaries ordered by prefix.
func (c *Collector) Summaries() []models.ObjectSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ObjectSummary, 0, len(c.summaries))
	for _, summary := range c.summaries {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// FileRows returns a copy of the collected files-flow rows in insertion order.
func (c *Collector) FileRows() []models.FileAuditRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.FileAuditRow, len(c.fileRows))
	copy(out, c.fileRows)
	return out
}

// ChatterRows returns a copy of the collected chatter-flow rows in
// insertion order.
func (c *Collector) ChatterRows() []models.ChatterAuditRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ChatterAuditRow, len(c.chatterRows))
	copy(out, c.chatterRows)
	return out
}
