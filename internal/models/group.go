package models

import "time"

// GroupKind tags what a group represents. Class groups resolve a user's
// reporting label; permission groups are organizational only.
type GroupKind string

const (
	GroupClass      GroupKind = "class"
	GroupPermission GroupKind = "permission"
)

// Group is a named set of users.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Kind      GroupKind `gorm:"size:16;not null;index" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolveClassName returns the name of the first class-kind group among the
// user's memberships. Callers must skip users with no resolvable class rather
// than emit a malformed row.
func ResolveClassName(groups []Group) (string, bool) {
	for _, group := range groups {
		if group.Kind == GroupClass {
			return group.Name, true
		}
	}
	return "", false
}
