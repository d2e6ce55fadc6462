package dto

import (
	"time"

	"github.com/zvms-dev/zvms-api/internal/models"
)

// LoginRequest carries user credentials.
type LoginRequest struct {
	StudentID int64  `json:"student_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// LoginResponse returns the issued bearer token alongside the user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse serializes a user for API consumers.
type UserResponse struct {
	ID        uint      `json:"id"`
	StudentID int64     `json:"student_id"`
	Name      string    `json:"name"`
	Sex       string    `json:"sex"`
	Roles     []string  `json:"roles"`
	ClassName string    `json:"class_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a user model into its API shape.
func NewUserResponse(user models.User) UserResponse {
	className, _ := models.ResolveClassName(user.Groups)
	return UserResponse{
		ID:        user.ID,
		StudentID: user.StudentID,
		Name:      user.Name,
		Sex:       user.Sex,
		Roles:     user.Roles,
		ClassName: className,
		CreatedAt: user.CreatedAt,
	}
}

// TimeSummary is the per-subject accrual result: four categorized totals and
// the grand total. Shape is stable regardless of output encoding.
type TimeSummary struct {
	OnCampus       float64 `json:"on-campus"`
	OffCampus      float64 `json:"off-campus"`
	SocialPractice float64 `json:"social-practice"`
	Award          float64 `json:"award"`
	Total          float64 `json:"total"`
}
