package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// TrophyService manages trophies and their award records.
type TrophyService interface {
	Create(ctx context.Context, payload dto.TrophyCreateRequest, creator models.User) (dto.TrophyResponse, error)
	Get(ctx context.Context, id uint) (dto.TrophyResponse, error)
	List(ctx context.Context) ([]dto.TrophyResponse, error)
	ChangeStatus(ctx context.Context, id uint, status models.TrophyStatus, actor models.User) error
	Delete(ctx context.Context, id uint, actor models.User) error
	AddMember(ctx context.Context, trophyID uint, payload dto.TrophyMemberAddRequest, actor models.User) (dto.TrophyMemberResponse, error)
}

type trophyService struct {
	trophies  repository.TrophyRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewTrophyService constructs the trophy service.
func NewTrophyService(trophies repository.TrophyRepository, validate *validator.Validate, logger zerolog.Logger) TrophyService {
	return &trophyService{
		trophies:  trophies,
		validator: validate,
		logger:    logger.With().Str("component", "trophy_service").Logger(),
		tracer:    otel.Tracer("github.com/zvms-dev/zvms-api/internal/service/trophy"),
	}
}

func (s *trophyService) Create(ctx context.Context, payload dto.TrophyCreateRequest, creator models.User) (dto.TrophyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "trophy.create")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.TrophyResponse{}, err
	}

	// Secretaries may submit trophies for review; the department and admins
	// create them pre-settled.
	var status models.TrophyStatus
	switch {
	case creator.HasRole(models.RoleDepartment) || creator.HasRole(models.RoleAdmin):
		status = models.TrophyEffective
	case creator.HasRole(models.RoleSecretary):
		status = models.TrophyPending
	default:
		return dto.TrophyResponse{}, ErrPermissionDenied
	}

	awards := make([]models.TrophyAward, 0, len(payload.Awards))
	for _, award := range payload.Awards {
		awards = append(awards, models.TrophyAward{Name: award.Name, Duration: award.Duration})
	}

	trophy := models.Trophy{
		Name:       payload.Name,
		Kind:       payload.Kind,
		Level:      payload.Level,
		Team:       payload.Team,
		Status:     status,
		Instructor: payload.Instructor,
		Deadline:   payload.Deadline,
		Time:       payload.Time,
		CreatorID:  creator.ID,
		Awards:     awards,
	}

	if err := s.trophies.Create(ctx, &trophy); err != nil {
		return dto.TrophyResponse{}, storeErr(err)
	}

	s.logger.Info().Uint("trophy_id", trophy.ID).Str("status", string(trophy.Status)).Msg("trophy created")

	return dto.NewTrophyResponse(trophy), nil
}

func (s *trophyService) Get(ctx context.Context, id uint) (dto.TrophyResponse, error) {
	trophy, err := s.trophies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TrophyResponse{}, ErrTrophyNotFound
		}
		return dto.TrophyResponse{}, storeErr(err)
	}
	return dto.NewTrophyResponse(trophy), nil
}

func (s *trophyService) List(ctx context.Context) ([]dto.TrophyResponse, error) {
	trophies, err := s.trophies.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	responses := make([]dto.TrophyResponse, 0, len(trophies))
	for _, trophy := range trophies {
		responses = append(responses, dto.NewTrophyResponse(trophy))
	}
	return responses, nil
}

func (s *trophyService) ChangeStatus(ctx context.Context, id uint, status models.TrophyStatus, actor models.User) error {
	if !actor.HasRole(models.RoleAdmin) && !actor.HasRole(models.RoleDepartment) {
		return ErrPermissionDenied
	}

	if _, err := s.trophies.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrophyNotFound
		}
		return storeErr(err)
	}

	return storeErr(s.trophies.UpdateStatus(ctx, id, status))
}

func (s *trophyService) Delete(ctx context.Context, id uint, actor models.User) error {
	trophy, err := s.trophies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrophyNotFound
		}
		return storeErr(err)
	}

	if trophy.CreatorID != actor.ID && !actor.HasRole(models.RoleAdmin) {
		return ErrPermissionDenied
	}

	return storeErr(s.trophies.Delete(ctx, id))
}

func (s *trophyService) AddMember(ctx context.Context, trophyID uint, payload dto.TrophyMemberAddRequest, actor models.User) (dto.TrophyMemberResponse, error) {
	ctx, span := s.tracer.Start(ctx, "trophy.add_member")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.TrophyMemberResponse{}, err
	}

	if actor.ID != payload.UserID && !actor.HasElevatedRole() && !actor.HasRole(models.RoleSecretary) {
		return dto.TrophyMemberResponse{}, ErrPermissionDenied
	}

	trophy, err := s.trophies.GetByID(ctx, trophyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TrophyMemberResponse{}, ErrTrophyNotFound
		}
		return dto.TrophyMemberResponse{}, storeErr(err)
	}

	if _, ok := trophy.AwardDuration(payload.AwardName); !ok {
		return dto.TrophyMemberResponse{}, ErrUnknownAward
	}

	if _, err := s.trophies.GetMember(ctx, trophyID, payload.UserID); err == nil {
		return dto.TrophyMemberResponse{}, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TrophyMemberResponse{}, storeErr(err)
	}

	member := models.TrophyMember{
		TrophyID:  trophyID,
		UserID:    payload.UserID,
		AwardName: payload.AwardName,
		Mode:      payload.Mode,
		Status:    models.TrophyPending,
	}
	if err := s.trophies.CreateMember(ctx, &member); err != nil {
		return dto.TrophyMemberResponse{}, storeErr(err)
	}

	s.logger.Info().Uint("trophy_id", trophyID).Uint("user_id", payload.UserID).Str("award", payload.AwardName).Msg("award record created")

	return dto.NewTrophyMemberResponse(member), nil
}
