package models

import "time"

// SystemLog is an operational event kept for administrators: automation
// transitions and failures, audited admin requests, and CLI changes.
// EntityType/EntityID are set when the event concerns a single work item.
type SystemLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Level      string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module     string    `gorm:"size:100;index" json:"module"`
	Action     string    `gorm:"size:200;index" json:"action"`
	Message    string    `gorm:"type:text" json:"message"`
	EntityType string    `gorm:"size:20;index:idx_system_log_entity" json:"entity_type,omitempty"`
	EntityID   *uint     `gorm:"index:idx_system_log_entity" json:"entity_id,omitempty"`
	RequestID  string    `gorm:"size:64;index" json:"request_id,omitempty"`
	UserID     *uint     `json:"user_id"`
	IP         string    `gorm:"size:50" json:"ip"`
	UserAgent  string    `gorm:"size:500" json:"user_agent"`
	Extra      string    `gorm:"type:text" json:"extra"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
