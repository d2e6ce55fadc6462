package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityKind distinguishes the four classes of activities.
type ActivityKind string

const (
	ActivitySpecified ActivityKind = "specified"
	ActivitySpecial   ActivityKind = "special"
	ActivitySocial    ActivityKind = "social"
	ActivityScale     ActivityKind = "scale"
)

// SpecialClassify refines special activities. Prize entries share the award
// quota with trophies and are never summed as ordinary special time.
type SpecialClassify string

const (
	ClassifyPrize     SpecialClassify = "prize"
	ClassifyImport    SpecialClassify = "import"
	ClassifyClub      SpecialClassify = "club"
	ClassifyDeduction SpecialClassify = "deduction"
	ClassifyOther     SpecialClassify = "other"
)

// ActivityStatus is the lifecycle state of the activity itself, as opposed to
// the per-member participation status.
type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivityEffective ActivityStatus = "effective"
	ActivityRefused   ActivityStatus = "refused"
)

// MemberStatus is the participation state of a single (activity, user) record.
type MemberStatus string

const (
	MemberDraft     MemberStatus = "draft"
	MemberPending   MemberStatus = "pending"
	MemberEffective MemberStatus = "effective"
	MemberRefused   MemberStatus = "refused"
	MemberRejected  MemberStatus = "rejected"
)

// IsValid reports whether the status is one of the five recognized states.
func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberDraft, MemberPending, MemberEffective, MemberRefused, MemberRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted out of s.
// A settled record keeps its status forever.
func (s MemberStatus) IsTerminal() bool {
	return s == MemberEffective || s == MemberRefused
}

// Activity is a volunteer activity users participate in. Normal (non-special)
// activities carry the countable duration on the activity itself; special
// activities carry it per member.
type Activity struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Kind        ActivityKind    `gorm:"size:16;not null;index" json:"kind"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Date        time.Time       `gorm:"index" json:"date"`
	Duration    float64         `gorm:"not null;default:0" json:"duration"`
	Status      ActivityStatus  `gorm:"size:16;not null;default:pending" json:"status"`
	Classify    SpecialClassify `gorm:"size:16;index" json:"classify,omitempty"`
	Origin      string          `gorm:"size:255" json:"origin,omitempty"`
	Reason      string          `gorm:"type:text" json:"reason,omitempty"`
	CreatorID   uint            `gorm:"not null" json:"creator_id"`
	Members     []ActivityMember `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Classes     []RegistrationClass `gorm:"constraint:OnDelete:CASCADE" json:"classes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsSpecial reports whether per-member durations apply.
func (a Activity) IsSpecial() bool {
	return a.Kind == ActivitySpecial
}

// RegistrationClass limits signup to a class group with a member cap.
type RegistrationClass struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ActivityID uint `gorm:"not null;index" json:"activity_id"`
	GroupID    uint `gorm:"not null" json:"group_id"`
	Max        int  `gorm:"not null" json:"max"`
}

// ActivityMember is one participation record: a user's entry in an activity,
// independently addressable by (activity id, user id).
type ActivityMember struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActivityID uint           `gorm:"not null;uniqueIndex:idx_activity_user" json:"activity_id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_activity_user" json:"user_id"`
	Status     MemberStatus   `gorm:"size:16;not null;default:draft" json:"status"`
	Mode       Category       `gorm:"size:32;not null" json:"mode"`
	Duration   float64        `gorm:"not null;default:0" json:"duration"`
	Impression string         `gorm:"type:text" json:"impression"`
	History    datatypes.JSON `gorm:"type:json" json:"history"`
	Images     datatypes.JSONSlice[string] `gorm:"type:json" json:"images"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Activity   Activity       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User       User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// MemberHistoryEntry records one status change in the append-only history.
type MemberHistoryEntry struct {
	ActorID uint         `json:"actor_id"`
	From    MemberStatus `json:"from"`
	To      MemberStatus `json:"to"`
	Time    time.Time    `json:"time"`
}
