package models

import "time"

// ExportStatus tracks an export job through its lifecycle.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// ExportFormat selects the output encoding of an export job.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ExportJob is a persisted bulk-export request keyed by a UUID. Jobs used to
// live in a process-global list; a DB row per job survives restarts and keeps
// the lifecycle explicit.
type ExportJob struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Format      ExportFormat `gorm:"size:8;not null" json:"format"`
	Status      ExportStatus `gorm:"size:16;not null;default:pending" json:"status"`
	RequestedBy uint         `gorm:"not null" json:"requested_by"`
	Error       string       `gorm:"type:text" json:"error,omitempty"`
	Artifact    []byte       `gorm:"type:bytes" json:"-"`
	FileName    string       `gorm:"size:255" json:"file_name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
