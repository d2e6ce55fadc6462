package dto

import (
	"time"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// ExportCreateRequest starts a bulk time export.
type ExportCreateRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=json csv xlsx"`
}

// ExportJobResponse serializes an export job.
type ExportJobResponse struct {
	ID          string              `json:"id"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
	FileName    string              `json:"file_name,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// NewExportJobResponse converts an export job into its API shape.
func NewExportJobResponse(job models.ExportJob) ExportJobResponse {
	return ExportJobResponse{
		ID:          job.ID,
		Format:      job.Format,
		Status:      job.Status,
		Error:       job.Error,
		FileName:    job.FileName,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}

// TimeRow is one exported line: subject info plus the five accrual totals.
type TimeRow struct {
	UserID    uint        `json:"user_id"`
	StudentID int64       `json:"student_id"`
	Name      string      `json:"name"`
	ClassName string      `json:"class_name"`
	Time      TimeSummary `json:"time"`
}
