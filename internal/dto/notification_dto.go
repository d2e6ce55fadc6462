package dto

import (
	"time"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// NotificationCreateRequest carries a new notification.
type NotificationCreateRequest struct {
	Title      string `json:"title" validate:"required,max=255"`
	Content    string `json:"content" validate:"required"`
	ReceiverID *uint  `json:"receiver_id,omitempty"`
	Anonymous  bool   `json:"anonymous"`
}

// NotificationResponse serializes a notification.
type NotificationResponse struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	SenderID   uint       `json:"sender_id,omitempty"`
	ReceiverID *uint      `json:"receiver_id,omitempty"`
	Anonymous  bool       `json:"anonymous"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewNotificationResponse converts a notification model into its API shape.
// Anonymous notifications hide the sender.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:         notification.ID,
		Title:      notification.Title,
		Content:    notification.Content,
		SenderID:   notification.SenderID,
		ReceiverID: notification.ReceiverID,
		Anonymous:  notification.Anonymous,
		ReadAt:     notification.ReadAt,
		CreatedAt:  notification.CreatedAt,
	}
	if notification.Anonymous {
		response.SenderID = 0
	}
	return response
}
