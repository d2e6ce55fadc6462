package dto

import (
	"time"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// TrophyAwardRequest declares one prize tier.
type TrophyAwardRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Duration float64 `json:"duration" validate:"required,gt=0"`
}

// TrophyCreateRequest carries a new trophy with its prize tiers.
type TrophyCreateRequest struct {
	Name       string               `json:"name" validate:"required,max=255"`
	Kind       models.TrophyKind    `json:"kind" validate:"required,oneof=academic art sports others"`
	Level      models.TrophyLevel   `json:"level" validate:"required,oneof=district city province national international"`
	Team       bool                 `json:"team"`
	Instructor string               `json:"instructor"`
	Deadline   time.Time            `json:"deadline"`
	Time       time.Time            `json:"time"`
	Awards     []TrophyAwardRequest `json:"awards" validate:"required,min=1,dive"`
}

// TrophyStatusRequest changes the trophy-level status.
type TrophyStatusRequest struct {
	Status models.TrophyStatus `json:"status" validate:"required,oneof=pending effective refused"`
}

// TrophyMemberAddRequest enrolls a user under a named prize tier.
type TrophyMemberAddRequest struct {
	UserID    uint            `json:"user_id" validate:"required"`
	AwardName string          `json:"award_name" validate:"required"`
	Mode      models.Category `json:"mode" validate:"required,oneof=on-campus off-campus"`
}

// TrophyMemberStatusRequest requests an award-record transition.
type TrophyMemberStatusRequest struct {
	Status models.TrophyStatus `json:"status" validate:"required,oneof=pending effective refused"`
}

// TrophyResponse serializes a trophy.
type TrophyResponse struct {
	ID         uint                   `json:"id"`
	Name       string                 `json:"name"`
	Kind       models.TrophyKind      `json:"kind"`
	Level      models.TrophyLevel     `json:"level"`
	Team       bool                   `json:"team"`
	Status     models.TrophyStatus    `json:"status"`
	Instructor string                 `json:"instructor"`
	CreatorID  uint                   `json:"creator_id"`
	Awards     []TrophyAwardResponse  `json:"awards"`
	Members    []TrophyMemberResponse `json:"members,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// TrophyAwardResponse serializes one prize tier.
type TrophyAwardResponse struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
}

// TrophyMemberResponse serializes one award record.
type TrophyMemberResponse struct {
	ID        uint                `json:"id"`
	TrophyID  uint                `json:"trophy_id"`
	UserID    uint                `json:"user_id"`
	AwardName string              `json:"award_name"`
	Mode      models.Category     `json:"mode"`
	Status    models.TrophyStatus `json:"status"`
}

// NewTrophyResponse converts a trophy model into its API shape.
func NewTrophyResponse(trophy models.Trophy) TrophyResponse {
	awards := make([]TrophyAwardResponse, 0, len(trophy.Awards))
	for _, award := range trophy.Awards {
		awards = append(awards, TrophyAwardResponse{Name: award.Name, Duration: award.Duration})
	}
	members := make([]TrophyMemberResponse, 0, len(trophy.Members))
	for _, member := range trophy.Members {
		members = append(members, NewTrophyMemberResponse(member))
	}
	return TrophyResponse{
		ID:         trophy.ID,
		Name:       trophy.Name,
		Kind:       trophy.Kind,
		Level:      trophy.Level,
		Team:       trophy.Team,
		Status:     trophy.Status,
		Instructor: trophy.Instructor,
		CreatorID:  trophy.CreatorID,
		Awards:     awards,
		Members:    members,
		CreatedAt:  trophy.CreatedAt,
	}
}

// NewTrophyMemberResponse converts an award record into its API shape.
func NewTrophyMemberResponse(member models.TrophyMember) TrophyMemberResponse {
	return TrophyMemberResponse{
		ID:        member.ID,
		TrophyID:  member.TrophyID,
		UserID:    member.UserID,
		AwardName: member.AwardName,
		Mode:      member.Mode,
		Status:    member.Status,
	}
}
