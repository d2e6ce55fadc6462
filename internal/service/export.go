package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

var exportHeader = []string{"Student ID", "Name", "Class", "On Campus", "Off Campus", "Social Practice", "Award", "Total"}

// ExportService runs bulk time exports as persisted jobs keyed by UUID.
type ExportService interface {
	CreateJob(ctx context.Context, payload dto.ExportCreateRequest, actor models.User) (dto.ExportJobResponse, error)
	GetJob(ctx context.Context, id string) (dto.ExportJobResponse, error)
	ListJobs(ctx context.Context, actor models.User) ([]dto.ExportJobResponse, error)
	Artifact(ctx context.Context, id string) (models.ExportJob, error)
	BuildRows(ctx context.Context, cfg AccrualConfig) ([]dto.TimeRow, error)
}

type exportService struct {
	jobs      repository.ExportRepository
	users     repository.UserRepository
	timesheet TimesheetService
	accrual   AccrualConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(jobs repository.ExportRepository, users repository.UserRepository, timesheet TimesheetService, accrual AccrualConfig, logger zerolog.Logger) ExportService {
	return &exportService{
		jobs:      jobs,
		users:     users,
		timesheet: timesheet,
		accrual:   accrual,
		logger:    logger.With().Str("component", "export_service").Logger(),
		now:       time.Now,
	}
}

func (s *exportService) CreateJob(ctx context.Context, payload dto.ExportCreateRequest, actor models.User) (dto.ExportJobResponse, error) {
	if !actor.HasElevatedRole() {
		return dto.ExportJobResponse{}, ErrPermissionDenied
	}

	job := models.ExportJob{
		ID:          uuid.NewString(),
		Format:      payload.Format,
		Status:      models.ExportPending,
		RequestedBy: actor.ID,
	}
	if err := s.jobs.Create(ctx, &job); err != nil {
		return dto.ExportJobResponse{}, storeErr(err)
	}

	// The job runs detached from the request; its row is the source of truth
	// for progress and the finished artifact.
	go s.run(context.Background(), job.ID)

	return dto.NewExportJobResponse(job), nil
}

func (s *exportService) GetJob(ctx context.Context, id string) (dto.ExportJobResponse, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExportJobResponse{}, ErrExportNotFound
		}
		return dto.ExportJobResponse{}, storeErr(err)
	}
	return dto.NewExportJobResponse(job), nil
}

func (s *exportService) ListJobs(ctx context.Context, actor models.User) ([]dto.ExportJobResponse, error) {
	jobs, err := s.jobs.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	responses := make([]dto.ExportJobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, dto.NewExportJobResponse(job))
	}
	return responses, nil
}

func (s *exportService) Artifact(ctx context.Context, id string) (models.ExportJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExportJob{}, ErrExportNotFound
		}
		return models.ExportJob{}, storeErr(err)
	}
	if job.Status != models.ExportCompleted {
		return models.ExportJob{}, ErrExportNotReady
	}
	return job, nil
}

func (s *exportService) run(ctx context.Context, id string) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", id).Msg("export job vanished before processing")
		return
	}

	job.Status = models.ExportProcessing
	if err := s.jobs.Update(ctx, &job); err != nil {
		s.logger.Error().Err(err).Str("job_id", id).Msg("failed to mark export job processing")
		return
	}

	rows, err := s.BuildRows(ctx, s.accrual)
	if err == nil {
		var artifact []byte
		var name string
		artifact, name, err = renderRows(rows, job.Format)
		if err == nil {
			job.Artifact = artifact
			job.FileName = name
		}
	}

	completed := s.now()
	if err != nil {
		job.Status = models.ExportFailed
		job.Error = err.Error()
		s.logger.Error().Err(err).Str("job_id", id).Msg("export job failed")
	} else {
		job.Status = models.ExportCompleted
		s.logger.Info().Str("job_id", id).Int("rows", len(rows)).Msg("export job completed")
	}
	job.CompletedAt = &completed

	if err := s.jobs.Update(ctx, &job); err != nil {
		s.logger.Error().Err(err).Str("job_id", id).Msg("failed to finalize export job")
	}
}

// BuildRows computes one TimeRow per user with a resolvable class. Users
// without a class group are skipped rather than exported malformed. The first
// aggregation error aborts the whole export; no partial totals leave here.
func (s *exportService) BuildRows(ctx context.Context, cfg AccrualConfig) ([]dto.TimeRow, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	rows := make([]dto.TimeRow, 0, len(users))
	for _, user := range users {
		className, ok := models.ResolveClassName(user.Groups)
		if !ok {
			continue
		}

		summary, err := s.timesheet.Compute(ctx, user.ID, cfg)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", user.ID, err)
		}

		rows = append(rows, dto.TimeRow{
			UserID:    user.ID,
			StudentID: user.StudentID,
			Name:      user.Name,
			ClassName: className,
			Time:      summary,
		})
	}
	return rows, nil
}

func renderRows(rows []dto.TimeRow, format models.ExportFormat) ([]byte, string, error) {
	switch format {
	case models.FormatJSON:
		data, err := json.Marshal(rows)
		return data, "time.json", err
	case models.FormatCSV:
		data, err := renderCSV(rows)
		return data, "time.csv", err
	case models.FormatXLSX:
		data, err := renderXLSX(rows)
		return data, "time.xlsx", err
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(rows []dto.TimeRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.StudentID, 10),
			row.Name,
			row.ClassName,
			formatHours(row.Time.OnCampus),
			formatHours(row.Time.OffCampus),
			formatHours(row.Time.SocialPractice),
			formatHours(row.Time.Award),
			formatHours(row.Time.Total),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows []dto.TimeRow) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Time"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.StudentID,
			row.Name,
			row.ClassName,
			row.Time.OnCampus,
			row.Time.OffCampus,
			row.Time.SocialPractice,
			row.Time.Award,
			row.Time.Total,
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
