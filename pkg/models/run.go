package models

import "time"

// RunKind selects which migration flow a run executes.
type RunKind string

const (
	RunKindFiles   RunKind = "files"
	RunKindChatter RunKind = "chatter"
)

// RunStatus is the lifecycle state of a migration run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// UnitStatus is the per-unit outcome recorded in the audit report.
type UnitStatus string

const (
	UnitStatusSuccess UnitStatus = "success"
	UnitStatusPartial UnitStatus = "partial"
	UnitStatusError   UnitStatus = "error"
	UnitStatusSkipped UnitStatus = "skipped"
)

// MigrationRun is a single operator-triggered migration.
type MigrationRun struct {
	ID          string     `json:"id" db:"id"`
	Kind        RunKind    `json:"kind" db:"kind"`
	Status      RunStatus  `json:"status" db:"status"`
	ExportDir   string     `json:"export_dir" db:"export_dir"`
	ReportPath  string     `json:"report_path,omitempty" db:"report_path"`
	Error       *string    `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ObjectSummary aggregates run results for one HubSpot object.
type ObjectSummary struct {
	Prefix        string `json:"prefix" db:"prefix"`
	ObjectName    string `json:"object_name" db:"object_name"`
	SuccessCount  int    `json:"success_count" db:"success_count"`
	SkippedCount  int    `json:"skipped_count" db:"skipped_count"`
	ErrorCount    int    `json:"error_count" db:"error_count"`
	UploadedFiles int    `json:"uploaded_files" db:"uploaded_files"`
}

// FileAuditRow is one audit report row for the files flow.
type FileAuditRow struct {
	SalesforceID  string     `json:"salesforce_id"`
	HubSpotObject string     `json:"hubspot_object"`
	HubSpotID     string     `json:"hubspot_id"`
	RecordURL     string     `json:"record_url"`
	FilesCount    int        `json:"files_count"`
	FilesUploaded int        `json:"files_uploaded"`
	NoteCreated   bool       `json:"note_created"`
	Status        UnitStatus `json:"status"`
	Reason        string     `json:"reason,omitempty"`
}

// ChatterAuditRow is one audit report row for the chatter flow.
type ChatterAuditRow struct {
	SalesforceID   string     `json:"salesforce_id"`
	HubSpotObject  string     `json:"hubspot_object"`
	HubSpotID      string     `json:"hubspot_id"`
	RecordURL      string     `json:"record_url"`
	FeedItemsCount int        `json:"feed_items_count"`
	NotesCreated   int        `json:"notes_created"`
	Status         UnitStatus `json:"status"`
	Reason         string     `json:"reason,omitempty"`
}

// AccountDetails is the destination portal identity used for token
// verification and record URL construction.
type AccountDetails struct {
	PortalID int64  `json:"portal_id"`
	UIDomain string `json:"ui_domain"`
	TimeZone string `json:"time_zone"`
}

// TargetObject is a selectable destination object (standard or custom schema).
type TargetObject struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	TypeID   string `json:"type_id"`
	Standard bool   `json:"standard"`
}
