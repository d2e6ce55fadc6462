package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role names a position a user holds within the school.
type Role string

const (
	RoleStudent    Role = "student"
	RoleSecretary  Role = "secretary"
	RoleDepartment Role = "department"
	RoleAuditor    Role = "auditor"
	RoleAdmin      Role = "admin"
	RoleSystem     Role = "system"
)

// User represents a member of the school population who can sign up for
// activities and receive trophies.
type User struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	StudentID    int64                       `gorm:"uniqueIndex;not null" json:"student_id"`
	Name         string                      `gorm:"size:255;not null" json:"name"`
	Sex          string                      `gorm:"size:16" json:"sex"`
	PasswordHash string                      `gorm:"size:255" json:"-"`
	Roles        datatypes.JSONSlice[string] `gorm:"type:json" json:"roles"`
	Groups       []Group                     `gorm:"many2many:user_groups" json:"groups,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if Role(r) == role {
			return true
		}
	}
	return false
}

// HasElevatedRole reports whether the user holds any role allowed to settle
// participation records (move them into effective or a rejection state).
func (u User) HasElevatedRole() bool {
	return u.HasRole(RoleAuditor) || u.HasRole(RoleAdmin) || u.HasRole(RoleDepartment)
}
