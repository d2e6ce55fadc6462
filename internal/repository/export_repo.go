package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// ExportRepository persists bulk-export jobs keyed by job id.
type ExportRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (models.ExportJob, error)
	Update(ctx context.Context, job *models.ExportJob) error
	ListByUser(ctx context.Context, userID uint) ([]models.ExportJob, error)
}

type exportRepository struct {
	db *gorm.DB
}

// NewExportRepository instantiates the repository.
func NewExportRepository(db *gorm.DB) ExportRepository {
	return &exportRepository{db: db}
}

func (r *exportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *exportRepository) GetByID(ctx context.Context, id string) (models.ExportJob, error) {
	var job models.ExportJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return models.ExportJob{}, err
	}
	return job, nil
}

func (r *exportRepository) Update(ctx context.Context, job *models.ExportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *exportRepository) ListByUser(ctx context.Context, userID uint) ([]models.ExportJob, error) {
	var jobs []models.ExportJob
	if err := r.db.WithContext(ctx).
		Where("requested_by = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
