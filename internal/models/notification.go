package models

import "time"

// Notification is an in-app message for a user, written by the notification worker.
type Notification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Type       string     `gorm:"size:50;not null" json:"type"` // status_automation
	EntityType string     `gorm:"size:20" json:"entity_type"`
	EntityID   uint       `json:"entity_id"`
	Title      string     `gorm:"size:500" json:"title"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
