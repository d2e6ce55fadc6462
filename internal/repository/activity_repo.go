package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// MemberFilter narrows participation-record queries. Kind/Classify carry both
// equality and inequality forms because the aggregator must split prize
// entries from ordinary special entries without ever double counting.
type MemberFilter struct {
	Kind        *models.ActivityKind
	NotKind     *models.ActivityKind
	Classify    *models.SpecialClassify
	NotClassify *models.SpecialClassify
	Status      *models.MemberStatus
	From        *time.Time
	To          *time.Time
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	Search   string
	Page     int
	PageSize int
}

// ActivityRepository defines data operations for activities and their
// participation records.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	UpdateStatus(ctx context.Context, id uint, status models.ActivityStatus) error

	ListForMember(ctx context.Context, userID uint, filter MemberFilter) ([]models.ActivityMember, error)
	GetMember(ctx context.Context, activityID, userID uint) (models.ActivityMember, error)
	CountMembers(ctx context.Context, activityID uint) (int64, error)
	CreateMember(ctx context.Context, member *models.ActivityMember) error
	UpdateMember(ctx context.Context, member *models.ActivityMember) error
	DeleteMember(ctx context.Context, activityID, userID uint) error
	CompareAndSwapMemberStatus(ctx context.Context, member *models.ActivityMember, observed models.MemberStatus) (bool, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Classes").
		First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Order("id DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) UpdateStatus(ctx context.Context, id uint, status models.ActivityStatus) error {
	return r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *activityRepository) memberQuery(ctx context.Context, userID uint, filter MemberFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ActivityMember{}).
		Joins("JOIN activities ON activities.id = activity_members.activity_id").
		Where("activity_members.user_id = ?", userID).
		Preload("Activity")

	if filter.Kind != nil {
		query = query.Where("activities.kind = ?", *filter.Kind)
	}
	if filter.NotKind != nil {
		query = query.Where("activities.kind <> ?", *filter.NotKind)
	}
	if filter.Classify != nil {
		query = query.Where("activities.classify = ?", *filter.Classify)
	}
	if filter.NotClassify != nil {
		query = query.Where("activities.classify <> ? OR activities.classify IS NULL OR activities.classify = ''", *filter.NotClassify)
	}
	if filter.Status != nil {
		query = query.Where("activity_members.status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("activities.date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("activities.date < ?", *filter.To)
	}

	return query
}

func (r *activityRepository) ListForMember(ctx context.Context, userID uint, filter MemberFilter) ([]models.ActivityMember, error) {
	var members []models.ActivityMember
	if err := r.memberQuery(ctx, userID, filter).
		Order("activity_members.id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *activityRepository) GetMember(ctx context.Context, activityID, userID uint) (models.ActivityMember, error) {
	var member models.ActivityMember
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Where("user_id = ?", userID).
		First(&member).Error; err != nil {
		return models.ActivityMember{}, err
	}
	return member, nil
}

func (r *activityRepository) CountMembers(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityMember{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *activityRepository) CreateMember(ctx context.Context, member *models.ActivityMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *activityRepository) UpdateMember(ctx context.Context, member *models.ActivityMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *activityRepository) DeleteMember(ctx context.Context, activityID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Where("user_id = ?", userID).
		Delete(&models.ActivityMember{}).Error
}

// CompareAndSwapMemberStatus applies the member's new status and history only
// if the stored status still equals the observed one. Returns false when a
// concurrent writer got there first; nothing is changed in that case.
func (r *activityRepository) CompareAndSwapMemberStatus(ctx context.Context, member *models.ActivityMember, observed models.MemberStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ActivityMember{}).
		Where("id = ?", member.ID).
		Where("status = ?", observed).
		Updates(map[string]interface{}{
			"status":  member.Status,
			"history": member.History,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
