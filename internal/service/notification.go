package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// NotificationService persists notifications and fans them out over the redis
// stream and the NATS subject so every node can deliver them.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest, sender models.User) (dto.NotificationResponse, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewNotificationService constructs the notification service. Redis and NATS
// are optional; persistence alone still works when either is absent.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		redis:       redisClient,
		redisStream: "zvms:notifications",
		nats:        natsConn,
		natsSubject: "zvms.notifications",
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest, sender models.User) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	// Broadcasts are reserved for elevated roles.
	if payload.ReceiverID == nil && !sender.HasElevatedRole() {
		return dto.NotificationResponse{}, ErrPermissionDenied
	}

	notification := models.Notification{
		Title:      s.sanitizer.Sanitize(payload.Title),
		Content:    s.sanitizer.Sanitize(payload.Content),
		SenderID:   sender.ID,
		ReceiverID: payload.ReceiverID,
		Anonymous:  payload.Anonymous,
	}

	if err := s.repo.Create(ctx, &notification); err != nil {
		return dto.NotificationResponse{}, storeErr(err)
	}

	response := dto.NewNotificationResponse(notification)
	s.fanOut(ctx, response)

	return response, nil
}

// fanOut pushes the notification onto the redis stream and the NATS subject.
// Delivery is best effort; the row is already persisted.
func (s *notificationService) fanOut(ctx context.Context, response dto.NotificationResponse) {
	encoded, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode notification event")
		return
	}

	if s.redis != nil {
		if err := s.redis.XAdd(ctx, &redis.XAddArgs{
			Stream: s.redisStream,
			Values: map[string]interface{}{"payload": string(encoded)},
		}).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to redis stream")
		}
	}

	if s.nats != nil {
		if err := s.nats.Publish(s.natsSubject, encoded); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to nats")
		}
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, dto.NewNotificationResponse(notification))
	}
	return responses, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, storeErr(err)
	}

	if notification.ReceiverID != nil && *notification.ReceiverID != userID {
		return dto.NotificationResponse{}, ErrPermissionDenied
	}

	if notification.ReadAt == nil {
		now := time.Now()
		notification.ReadAt = &now
		if err := s.repo.Update(ctx, &notification); err != nil {
			return dto.NotificationResponse{}, storeErr(err)
		}
	}

	return dto.NewNotificationResponse(notification), nil
}
