package models

// Progress is a best-effort progress event emitted while a run executes.
type Progress struct {
	Step    string `json:"step"`
	Percent int    `json:"progress"`
	Message string `json:"message"`
}

// Progress steps in emit order.
const (
	StepValidation      = "validation"
	StepDestinationInit = "destination_init"
	StepExtractRecords  = "extract_records"
	StepFileInfo        = "file_info"
	StepSearch          = "hubspot_search"
	StepProcessing      = "processing"
	StepComplete        = "complete"
)
