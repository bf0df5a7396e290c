package models

// StartFilesRunRequest starts a files migration run.
type StartFilesRunRequest struct {
	ExportDir   string          `json:"export_dir" validate:"required"`
	LinksCSV    string          `json:"links_csv" validate:"required"`
	VersionsCSV string          `json:"versions_csv" validate:"required"`
	FilesDir    string          `json:"files_dir" validate:"required"`
	Mappings    []ObjectMapping `json:"mappings" validate:"required,min=1,dive"`
}

// StartChatterRunRequest starts a chatter migration run.
type StartChatterRunRequest struct {
	ExportDir   string          `json:"export_dir" validate:"required"`
	FeedCSV     string          `json:"feed_csv" validate:"required"`
	CommentsCSV string          `json:"comments_csv" validate:"required"`
	UsersCSV    string          `json:"users_csv"`
	AttachCSV   string          `json:"attachments_csv"`
	LinksCSV    string          `json:"links_csv"`
	VersionsCSV string          `json:"versions_csv"`
	FilesDir    string          `json:"files_dir"`
	Mappings    []ObjectMapping `json:"mappings" validate:"required,min=1,dive"`
}

// AnalyzeRequest inspects an export before a run is configured.
type AnalyzeRequest struct {
	ExportDir string `json:"export_dir" validate:"required"`
	CSVPath   string `json:"csv_path" validate:"required"`
}

// PrefixCount is one row of an analyze response.
type PrefixCount struct {
	Prefix  string `json:"prefix"`
	Records int    `json:"records"`
	Files   int    `json:"files,omitempty"`
	Posts   int    `json:"posts,omitempty"`
}

// StartRunResponse returns the ID of an accepted run.
type StartRunResponse struct {
	RunID string `json:"run_id"`
}

// RunStateResponse is the polled view of a run.
type RunStateResponse struct {
	Run       MigrationRun    `json:"run"`
	Progress  *Progress       `json:"progress,omitempty"`
	Summaries []ObjectSummary `json:"summaries,omitempty"`
}
