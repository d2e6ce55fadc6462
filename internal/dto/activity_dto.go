package dto

import (
	"time"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}

// RegistrationClassRequest limits signup for one class group.
type RegistrationClassRequest struct {
	GroupID uint `json:"group_id" validate:"required"`
	Max     int  `json:"max" validate:"required,min=1"`
}

// ActivityCreateRequest carries a new activity.
type ActivityCreateRequest struct {
	Kind        models.ActivityKind        `json:"kind" validate:"required,oneof=specified special social scale"`
	Name        string                     `json:"name" validate:"required,max=255"`
	Description string                     `json:"description"`
	Date        time.Time                  `json:"date" validate:"required"`
	Duration    float64                    `json:"duration" validate:"gte=0"`
	Classify    models.SpecialClassify     `json:"classify,omitempty" validate:"omitempty,oneof=prize import club other deduction"`
	Origin      string                     `json:"origin,omitempty"`
	Reason      string                     `json:"reason,omitempty"`
	Classes     []RegistrationClassRequest `json:"classes,omitempty" validate:"dive"`
}

// ActivityUpdateRequest patches mutable activity fields.
type ActivityUpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string  `json:"description,omitempty"`
	Duration    *float64 `json:"duration,omitempty" validate:"omitempty,gte=0"`
}

// ActivityStatusRequest changes the activity-level status.
type ActivityStatusRequest struct {
	Status models.ActivityStatus `json:"status" validate:"required,oneof=pending effective refused"`
}

// MemberStatusRequest requests a participation-record transition.
type MemberStatusRequest struct {
	Status models.MemberStatus `json:"status" validate:"required,oneof=draft pending effective refused rejected"`
}

// ImpressionRequest updates a member's reflection text.
type ImpressionRequest struct {
	Impression string `json:"impression" validate:"required"`
}

// ActivityResponse serializes an activity.
type ActivityResponse struct {
	ID          uint                   `json:"id"`
	Kind        models.ActivityKind    `json:"kind"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Date        time.Time              `json:"date"`
	Duration    float64                `json:"duration"`
	Status      models.ActivityStatus  `json:"status"`
	Classify    models.SpecialClassify `json:"classify,omitempty"`
	CreatorID   uint                   `json:"creator_id"`
	Members     []MemberResponse       `json:"members,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// MemberResponse serializes one participation record.
type MemberResponse struct {
	ID         uint                `json:"id"`
	ActivityID uint                `json:"activity_id"`
	UserID     uint                `json:"user_id"`
	Status     models.MemberStatus `json:"status"`
	Mode       models.Category     `json:"mode"`
	Duration   float64             `json:"duration"`
	Impression string              `json:"impression"`
	Images     []string            `json:"images"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewActivityResponse converts an activity model into its API shape.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	members := make([]MemberResponse, 0, len(activity.Members))
	for _, member := range activity.Members {
		members = append(members, NewMemberResponse(member))
	}
	return ActivityResponse{
		ID:          activity.ID,
		Kind:        activity.Kind,
		Name:        activity.Name,
		Description: activity.Description,
		Date:        activity.Date,
		Duration:    activity.Duration,
		Status:      activity.Status,
		Classify:    activity.Classify,
		CreatorID:   activity.CreatorID,
		Members:     members,
		CreatedAt:   activity.CreatedAt,
	}
}

// NewMemberResponse converts a participation record into its API shape.
func NewMemberResponse(member models.ActivityMember) MemberResponse {
	return MemberResponse{
		ID:         member.ID,
		ActivityID: member.ActivityID,
		UserID:     member.UserID,
		Status:     member.Status,
		Mode:       member.Mode,
		Duration:   member.Duration,
		Impression: member.Impression,
		Images:     member.Images,
		UpdatedAt:  member.UpdatedAt,
	}
}
