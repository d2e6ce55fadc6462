package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// UserService handles login and user lookups.
type UserService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	GetModel(ctx context.Context, id uint) (models.User, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	ListActivities(ctx context.Context, userID uint, from, to *time.Time) ([]dto.MemberResponse, error)
}

type userService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	validator  *validator.Validate
	jwtSecret  string
	tokenTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, activities repository.ActivityRepository, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) UserService {
	return &userService{
		users:      users,
		activities: activities,
		validator:  validate,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     logger.With().Str("component", "user_service").Logger(),
		now:        time.Now,
	}
}

func (s *userService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByStudentID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, storeErr(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"roles": []string(user.Roles),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.GetModel(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) GetModel(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storeErr(err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}

func (s *userService) ListActivities(ctx context.Context, userID uint, from, to *time.Time) ([]dto.MemberResponse, error) {
	if _, err := s.GetModel(ctx, userID); err != nil {
		return nil, err
	}

	members, err := s.activities.ListForMember(ctx, userID, repository.MemberFilter{From: from, To: to})
	if err != nil {
		return nil, storeErr(err)
	}

	responses := make([]dto.MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, dto.NewMemberResponse(member))
	}
	return responses, nil
}
