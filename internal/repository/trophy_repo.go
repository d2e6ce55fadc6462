package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// TrophyRepository defines data operations for trophies and award records.
type TrophyRepository interface {
	GetByID(ctx context.Context, id uint) (models.Trophy, error)
	List(ctx context.Context) ([]models.Trophy, error)
	Create(ctx context.Context, trophy *models.Trophy) error
	UpdateStatus(ctx context.Context, id uint, status models.TrophyStatus) error
	Delete(ctx context.Context, id uint) error

	ListEffectiveForMember(ctx context.Context, userID uint) ([]models.TrophyMember, error)
	GetMember(ctx context.Context, trophyID, userID uint) (models.TrophyMember, error)
	CreateMember(ctx context.Context, member *models.TrophyMember) error
	CompareAndSwapMemberStatus(ctx context.Context, member *models.TrophyMember, observed models.TrophyStatus) (bool, error)
}

type trophyRepository struct {
	db *gorm.DB
}

// NewTrophyRepository instantiates the repository.
func NewTrophyRepository(db *gorm.DB) TrophyRepository {
	return &trophyRepository{db: db}
}

func (r *trophyRepository) GetByID(ctx context.Context, id uint) (models.Trophy, error) {
	var trophy models.Trophy
	if err := r.db.WithContext(ctx).
		Preload("Awards").
		Preload("Members").
		First(&trophy, id).Error; err != nil {
		return models.Trophy{}, err
	}
	return trophy, nil
}

func (r *trophyRepository) List(ctx context.Context) ([]models.Trophy, error) {
	var trophies []models.Trophy
	if err := r.db.WithContext(ctx).
		Preload("Awards").
		Order("id DESC").
		Find(&trophies).Error; err != nil {
		return nil, err
	}
	return trophies, nil
}

func (r *trophyRepository) Create(ctx context.Context, trophy *models.Trophy) error {
	return r.db.WithContext(ctx).Create(trophy).Error
}

func (r *trophyRepository) UpdateStatus(ctx context.Context, id uint, status models.TrophyStatus) error {
	return r.db.WithContext(ctx).Model(&models.Trophy{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *trophyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Trophy{}, id).Error
}

// ListEffectiveForMember returns the user's effective award records in stored
// order, each with the parent trophy's prize tiers preloaded. Stored order
// matters: the quota clamp stops the walk at the entry that fills it.
func (r *trophyRepository) ListEffectiveForMember(ctx context.Context, userID uint) ([]models.TrophyMember, error) {
	var members []models.TrophyMember
	if err := r.db.WithContext(ctx).Model(&models.TrophyMember{}).
		Where("user_id = ?", userID).
		Where("status = ?", models.TrophyEffective).
		Preload("Trophy").
		Preload("Trophy.Awards").
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *trophyRepository) GetMember(ctx context.Context, trophyID, userID uint) (models.TrophyMember, error) {
	var member models.TrophyMember
	if err := r.db.WithContext(ctx).
		Where("trophy_id = ?", trophyID).
		Where("user_id = ?", userID).
		First(&member).Error; err != nil {
		return models.TrophyMember{}, err
	}
	return member, nil
}

func (r *trophyRepository) CreateMember(ctx context.Context, member *models.TrophyMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// CompareAndSwapMemberStatus mirrors the activity-member CAS so that
// concurrent settles of the same award record serialize on stored status.
func (r *trophyRepository) CompareAndSwapMemberStatus(ctx context.Context, member *models.TrophyMember, observed models.TrophyStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.TrophyMember{}).
		Where("id = ?", member.ID).
		Where("status = ?", observed).
		Update("status", member.Status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
