package model

import "time"

// TriggerKind records what started a pipeline run.
type TriggerKind string

const (
	TriggerManual    TriggerKind = "MANUAL"
	TriggerScheduled TriggerKind = "SCHEDULED"
)

// RunStatus is the final outcome of a pipeline run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailure RunStatus = "FAILURE"
	RunStatusPartial RunStatus = "PARTIAL"
)

// RunAudit is one append-only record per pipeline invocation.
type RunAudit struct {
	ID               string         `json:"id"`
	ExecutedAt       time.Time      `json:"executed_at"`
	Trigger          TriggerKind    `json:"trigger"`
	Status           RunStatus      `json:"status"`
	JournalsFound    int            `json:"journals_found"`
	JournalsAcquired int            `json:"journals_acquired"`
	PDFsDownloaded   int            `json:"pdfs_downloaded"`
	RecordsExtracted int            `json:"records_extracted"`
	DurationSecs     int            `json:"duration_secs"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}
