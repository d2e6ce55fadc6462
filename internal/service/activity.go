package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// ErrUnsupportedImage indicates an evidence upload is not an image.
var ErrUnsupportedImage = errors.New("unsupported image type")

// FileUploader stores an evidence file and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ActivityService manages activities and the membership operations around the
// participation state machine.
type ActivityService interface {
	Create(ctx context.Context, payload dto.ActivityCreateRequest, creator models.User) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	List(ctx context.Context, filter repository.ActivityFilter) ([]dto.ActivityResponse, dto.PaginationMeta, error)
	Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor models.User) (dto.ActivityResponse, error)
	ChangeStatus(ctx context.Context, id uint, status models.ActivityStatus, actor models.User) error
	Signup(ctx context.Context, activityID uint, user models.User) (dto.MemberResponse, error)
	Signoff(ctx context.Context, activityID, subjectID uint, actor models.User) error
	EditImpression(ctx context.Context, activityID, subjectID uint, impression string, actor models.User) (dto.MemberResponse, error)
	AttachImage(ctx context.Context, activityID, subjectID uint, file *multipart.FileHeader, actor models.User) (dto.MemberResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	validator  *validator.Validate
	uploader   FileUploader
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewActivityService constructs the activity service.
func NewActivityService(activities repository.ActivityRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		validator:  validate,
		uploader:   uploader,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		tracer:     otel.Tracer("github.com/zvms-dev/zvms-api/internal/service/activity"),
	}
}

// canCreate gates activity creation by kind the way the permission matrix
// assigns it: secretaries open ordinary activities for their class, only the
// department or an admin may create special ones.
func canCreate(kind models.ActivityKind, creator models.User) bool {
	if creator.HasRole(models.RoleAdmin) || creator.HasRole(models.RoleDepartment) {
		return true
	}
	if kind == models.ActivitySpecial {
		return false
	}
	return creator.HasRole(models.RoleSecretary)
}

func (s *activityService) Create(ctx context.Context, payload dto.ActivityCreateRequest, creator models.User) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activity.create")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}
	if !canCreate(payload.Kind, creator) {
		return dto.ActivityResponse{}, ErrPermissionDenied
	}

	classes := make([]models.RegistrationClass, 0, len(payload.Classes))
	for _, class := range payload.Classes {
		classes = append(classes, models.RegistrationClass{GroupID: class.GroupID, Max: class.Max})
	}

	activity := models.Activity{
		Kind:        payload.Kind,
		Name:        payload.Name,
		Description: s.sanitizer.Sanitize(payload.Description),
		Date:        payload.Date,
		Duration:    payload.Duration,
		Status:      models.ActivityPending,
		Classify:    payload.Classify,
		Origin:      payload.Origin,
		Reason:      payload.Reason,
		CreatorID:   creator.ID,
		Classes:     classes,
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, storeErr(err)
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("kind", string(activity.Kind)).Msg("activity created")

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, storeErr(err)
	}
	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, filter repository.ActivityFilter) ([]dto.ActivityResponse, dto.PaginationMeta, error) {
	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, dto.PaginationMeta{}, storeErr(err)
	}

	responses := make([]dto.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, dto.NewActivityResponse(activity))
	}

	meta := dto.PaginationMeta{Page: filter.Page, PageSize: filter.PageSize, TotalItems: total}
	return responses, meta, nil
}

func (s *activityService) Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor models.User) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, storeErr(err)
	}

	if activity.CreatorID != actor.ID && !actor.HasElevatedRole() {
		return dto.ActivityResponse{}, ErrPermissionDenied
	}

	if payload.Name != nil {
		activity.Name = *payload.Name
	}
	if payload.Description != nil {
		activity.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.Duration != nil {
		activity.Duration = *payload.Duration
	}

	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, storeErr(err)
	}
	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) ChangeStatus(ctx context.Context, id uint, status models.ActivityStatus, actor models.User) error {
	if !actor.HasRole(models.RoleAdmin) && !actor.HasRole(models.RoleDepartment) {
		return ErrPermissionDenied
	}

	if _, err := s.activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return storeErr(err)
	}

	return storeErr(s.activities.UpdateStatus(ctx, id, status))
}

func (s *activityService) Signup(ctx context.Context, activityID uint, user models.User) (dto.MemberResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activity.signup")
	defer span.End()

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MemberResponse{}, ErrActivityNotFound
		}
		return dto.MemberResponse{}, storeErr(err)
	}

	if _, err := s.activities.GetMember(ctx, activityID, user.ID); err == nil {
		return dto.MemberResponse{}, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MemberResponse{}, storeErr(err)
	}

	class, ok := registrationClassFor(activity, user)
	if !ok {
		return dto.MemberResponse{}, ErrRegistrationClosed
	}

	count, err := s.activities.CountMembers(ctx, activityID)
	if err != nil {
		return dto.MemberResponse{}, storeErr(err)
	}
	if count >= int64(class.Max) {
		return dto.MemberResponse{}, ErrActivityFull
	}

	member := models.ActivityMember{
		ActivityID: activityID,
		UserID:     user.ID,
		Status:     models.MemberDraft,
		Mode:       models.CategoryOnCampus,
	}
	if err := s.activities.CreateMember(ctx, &member); err != nil {
		return dto.MemberResponse{}, storeErr(err)
	}

	s.logger.Info().Uint("activity_id", activityID).Uint("user_id", user.ID).Msg("user signed up")

	return dto.NewMemberResponse(member), nil
}

// registrationClassFor finds the registration slot covering one of the user's
// class groups.
func registrationClassFor(activity models.Activity, user models.User) (models.RegistrationClass, bool) {
	for _, class := range activity.Classes {
		for _, group := range user.Groups {
			if group.Kind == models.GroupClass && group.ID == class.GroupID {
				return class, true
			}
		}
	}
	return models.RegistrationClass{}, false
}

func (s *activityService) Signoff(ctx context.Context, activityID, subjectID uint, actor models.User) error {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return storeErr(err)
	}

	if _, err := s.activities.GetMember(ctx, activityID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotInRecord
		}
		return storeErr(err)
	}

	if actor.ID != subjectID && !actor.HasElevatedRole() {
		return ErrPermissionDenied
	}

	return storeErr(s.activities.DeleteMember(ctx, activityID, subjectID))
}

func (s *activityService) EditImpression(ctx context.Context, activityID, subjectID uint, impression string, actor models.User) (dto.MemberResponse, error) {
	member, err := s.lookupMember(ctx, activityID, subjectID)
	if err != nil {
		return dto.MemberResponse{}, err
	}

	if actor.ID != subjectID && !actor.HasElevatedRole() {
		return dto.MemberResponse{}, ErrPermissionDenied
	}

	member.Impression = s.sanitizer.Sanitize(strings.TrimSpace(impression))
	if err := s.activities.UpdateMember(ctx, &member); err != nil {
		return dto.MemberResponse{}, storeErr(err)
	}
	return dto.NewMemberResponse(member), nil
}

func (s *activityService) AttachImage(ctx context.Context, activityID, subjectID uint, file *multipart.FileHeader, actor models.User) (dto.MemberResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activity.attach_image")
	defer span.End()

	member, err := s.lookupMember(ctx, activityID, subjectID)
	if err != nil {
		return dto.MemberResponse{}, err
	}

	if actor.ID != subjectID && !actor.HasElevatedRole() {
		return dto.MemberResponse{}, ErrPermissionDenied
	}

	source, err := file.Open()
	if err != nil {
		return dto.MemberResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer source.Close()

	kind, err := mimetype.DetectReader(source)
	if err != nil {
		return dto.MemberResponse{}, fmt.Errorf("failed to sniff upload: %w", err)
	}
	if !strings.HasPrefix(kind.String(), "image/") {
		return dto.MemberResponse{}, ErrUnsupportedImage
	}
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return dto.MemberResponse{}, fmt.Errorf("failed to rewind upload: %w", err)
	}

	url, err := s.uploader.Upload(ctx, file.Filename, source)
	if err != nil {
		return dto.MemberResponse{}, fmt.Errorf("failed to store evidence image: %w", err)
	}

	member.Images = append(member.Images, url)
	if err := s.activities.UpdateMember(ctx, &member); err != nil {
		return dto.MemberResponse{}, storeErr(err)
	}

	s.logger.Info().Uint("activity_id", activityID).Uint("user_id", subjectID).Str("url", url).Msg("evidence image attached")

	return dto.NewMemberResponse(member), nil
}

func (s *activityService) lookupMember(ctx context.Context, activityID, subjectID uint) (models.ActivityMember, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityMember{}, ErrActivityNotFound
		}
		return models.ActivityMember{}, storeErr(err)
	}

	member, err := s.activities.GetMember(ctx, activityID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityMember{}, ErrNotInRecord
		}
		return models.ActivityMember{}, storeErr(err)
	}
	return member, nil
}
