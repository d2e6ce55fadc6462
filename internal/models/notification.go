package models

import "time"

// Notification is a message delivered to one user or broadcast to all.
type Notification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text" json:"content"`
	SenderID   uint       `gorm:"not null" json:"sender_id"`
	ReceiverID *uint      `gorm:"index" json:"receiver_id"`
	Anonymous  bool       `gorm:"not null;default:false" json:"anonymous"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsBroadcast reports whether the notification targets every user.
func (n Notification) IsBroadcast() bool {
	return n.ReceiverID == nil
}
