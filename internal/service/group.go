package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// ErrGroupNotFound indicates the group was not located.
var ErrGroupNotFound = errors.New("group not found")

// GroupService exposes group membership lookups.
type GroupService interface {
	List(ctx context.Context) ([]models.Group, error)
	Get(ctx context.Context, id uint) (models.Group, error)
	ListMembers(ctx context.Context, id uint) ([]dto.UserResponse, error)
}

type groupService struct {
	groups repository.GroupRepository
	logger zerolog.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(groups repository.GroupRepository, logger zerolog.Logger) GroupService {
	return &groupService{
		groups: groups,
		logger: logger.With().Str("component", "group_service").Logger(),
	}
}

func (s *groupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return groups, nil
}

func (s *groupService) Get(ctx context.Context, id uint) (models.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, storeErr(err)
	}
	return group, nil
}

func (s *groupService) ListMembers(ctx context.Context, id uint) ([]dto.UserResponse, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	users, err := s.groups.ListMembers(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}
