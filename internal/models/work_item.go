package models

import (
	"time"

	"gorm.io/gorm"
)

// Entity types a completion rule can target.
const (
	EntityTypeIssue      = "issue"
	EntityTypeActionItem = "action_item"
)

// DefaultStatus is the status new work items start in.
const DefaultStatus = "To Do"

// Issue is a tracked problem or feature request inside a project.
type Issue struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:50;default:'To Do';index" json:"status"`
	Priority    string         `gorm:"size:20;default:medium" json:"priority"` // low, medium, high, critical
	AssigneeID  *uint          `gorm:"index" json:"assignee_id"`
	CreatedBy   *uint          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ActionItem is a follow-up task, typically raised from a meeting or document.
type ActionItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:50;default:'To Do';index" json:"status"`
	Priority    string         `gorm:"size:20;default:medium" json:"priority"`
	AssigneeID  *uint          `gorm:"index" json:"assignee_id"`
	DueDate     *time.Time     `json:"due_date"`
	CreatedBy   *uint          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Issue) TableName() string      { return "issues" }
func (ActionItem) TableName() string { return "action_items" }

// IsValidEntityType reports whether t names an automatable work item type.
func IsValidEntityType(t string) bool {
	return t == EntityTypeIssue || t == EntityTypeActionItem
}
