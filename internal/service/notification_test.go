package service

import (
	"context"
	"encoding/json"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
)

type fakeNotificationRepo struct {
	notifications []models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = uint(len(r.notifications) + 1)
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id uint) (models.Notification, error) {
	for _, notification := range r.notifications {
		if notification.ID == id {
			return notification, nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	matched := make([]models.Notification, 0)
	for _, notification := range r.notifications {
		if notification.ReceiverID == nil || *notification.ReceiverID == userID {
			matched = append(matched, notification)
		}
	}
	return matched, nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, notification *models.Notification) error {
	for i := range r.notifications {
		if r.notifications[i].ID == notification.ID {
			r.notifications[i] = *notification
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func notificationFixture(redisClient *redis.Client) (NotificationService, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewNotificationService(repo, redisClient, nil, validate, testLogger()), repo
}

func TestPublishDirectNotification(t *testing.T) {
	svc, repo := notificationFixture(nil)

	receiver := uint(7)
	resp, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Title:      "record settled",
		Content:    "your participation is now <b>effective</b>",
		ReceiverID: &receiver,
	}, student(3))
	require.NoError(t, err)
	require.Equal(t, "your participation is now effective", resp.Content)
	require.Len(t, repo.notifications, 1)
}

func TestPublishBroadcastRequiresElevatedRole(t *testing.T) {
	svc, _ := notificationFixture(nil)

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Title:   "announcement",
		Content: "hello all",
	}, student(3))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPublishFansOutToRedisStream(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	svc, _ := notificationFixture(redisClient)

	resp, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Title:   "announcement",
		Content: "hello all",
	}, auditor(2))
	require.NoError(t, err)

	entries, err := redisClient.XRange(context.Background(), "zvms:notifications", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var event dto.NotificationResponse
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &event))
	require.Equal(t, resp.ID, event.ID)
	require.Equal(t, "announcement", event.Title)
}

func TestPublishAnonymousHidesSender(t *testing.T) {
	svc, _ := notificationFixture(nil)

	resp, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Title:     "tip",
		Content:   "secret",
		Anonymous: true,
	}, auditor(2))
	require.NoError(t, err)
	require.Zero(t, resp.SenderID)
}

func TestMarkReadOwnership(t *testing.T) {
	svc, repo := notificationFixture(nil)

	receiver := uint(7)
	repo.notifications = []models.Notification{
		{ID: 1, Title: "hi", Content: "there", SenderID: 2, ReceiverID: &receiver},
	}

	_, err := svc.MarkRead(context.Background(), 1, 8)
	require.ErrorIs(t, err, ErrPermissionDenied)

	resp, err := svc.MarkRead(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, resp.ReadAt)

	// Second read keeps the original timestamp.
	again, err := svc.MarkRead(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, resp.ReadAt.Unix(), again.ReadAt.Unix())
}

func TestMarkReadMissingNotification(t *testing.T) {
	svc, _ := notificationFixture(nil)

	_, err := svc.MarkRead(context.Background(), 42, 7)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}
