package models

import "time"

// TrophyKind groups competitions by discipline.
type TrophyKind string

const (
	TrophyAcademic TrophyKind = "academic"
	TrophyArt      TrophyKind = "art"
	TrophySports   TrophyKind = "sports"
	TrophyOthers   TrophyKind = "others"
)

// TrophyLevel is the administrative level of the competition.
type TrophyLevel string

const (
	LevelDistrict      TrophyLevel = "district"
	LevelCity          TrophyLevel = "city"
	LevelProvince      TrophyLevel = "province"
	LevelNational      TrophyLevel = "national"
	LevelInternational TrophyLevel = "international"
)

// TrophyStatus is the lifecycle state of the trophy and of each member entry.
type TrophyStatus string

const (
	TrophyPending   TrophyStatus = "pending"
	TrophyEffective TrophyStatus = "effective"
	TrophyRefused   TrophyStatus = "refused"
)

// Trophy is a competition whose prize tiers carry fixed duration payouts.
type Trophy struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Kind       TrophyKind     `gorm:"size:16;not null" json:"kind"`
	Level      TrophyLevel    `gorm:"size:16;not null" json:"level"`
	Team       bool           `gorm:"not null;default:false" json:"team"`
	Status     TrophyStatus   `gorm:"size:16;not null;default:pending" json:"status"`
	Instructor string         `gorm:"size:255" json:"instructor"`
	Deadline   time.Time      `json:"deadline"`
	Time       time.Time      `json:"time"`
	CreatorID  uint           `gorm:"not null" json:"creator_id"`
	Awards     []TrophyAward  `gorm:"constraint:OnDelete:CASCADE" json:"awards,omitempty"`
	Members    []TrophyMember `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// AwardDuration resolves the fixed duration of the named prize tier. The
// second return is false when the tier does not exist on this trophy.
func (t Trophy) AwardDuration(name string) (float64, bool) {
	for _, award := range t.Awards {
		if award.Name == name {
			return award.Duration, true
		}
	}
	return 0, false
}

// TrophyAward is a named prize tier with a fixed duration value.
type TrophyAward struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	TrophyID uint    `gorm:"not null;index" json:"trophy_id"`
	Name     string  `gorm:"size:255;not null" json:"name"`
	Duration float64 `gorm:"not null" json:"duration"`
}

// TrophyMember is one award record: a user's entry in a competition referring
// to one of the trophy's prize tiers.
type TrophyMember struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TrophyID  uint         `gorm:"not null;uniqueIndex:idx_trophy_user" json:"trophy_id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_trophy_user" json:"user_id"`
	AwardName string       `gorm:"size:255;not null" json:"award_name"`
	Mode      Category     `gorm:"size:32;not null" json:"mode"`
	Status    TrophyStatus `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Trophy    Trophy       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
