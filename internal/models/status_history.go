package models

import "time"

// StatusHistory is an append-only audit row for a work item status change.
// ChangedBy is nil when the change was made by automation.
type StatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ItemType   string    `gorm:"size:20;not null;index:idx_status_history_item,priority:1" json:"item_type"`
	ItemID     uint      `gorm:"not null;index:idx_status_history_item,priority:2" json:"item_id"`
	ProjectID  uint      `gorm:"index" json:"project_id"`
	FromStatus string    `gorm:"size:50" json:"from_status"`
	ToStatus   string    `gorm:"size:50;not null" json:"to_status"`
	ChangedBy  *uint     `json:"changed_by"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (StatusHistory) TableName() string { return "status_history" }
