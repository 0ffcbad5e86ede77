package models

import (
	"time"

	"gorm.io/gorm"
)

// Checklist is a set of boolean items, optionally linked to one work item.
// TotalItems and CompletedItems are denormalized from checklist_items and must
// be rewritten whenever an item changes.
type Checklist struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ProjectID       uint           `gorm:"index;not null" json:"project_id"`
	Title           string         `gorm:"size:500;not null" json:"title"`
	RelatedIssueID  *uint          `gorm:"index" json:"related_issue_id"`
	RelatedActionID *uint          `gorm:"index" json:"related_action_id"`
	IsStandalone    bool           `gorm:"default:false" json:"is_standalone"` // standalone lists never drive automation
	TotalItems      int            `gorm:"default:0" json:"total_items"`
	CompletedItems  int            `gorm:"default:0" json:"completed_items"`
	CreatedBy       *uint          `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChecklistItem is a single checkbox.
type ChecklistItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChecklistID uint       `gorm:"index;not null" json:"checklist_id"`
	Title       string     `gorm:"size:500;not null" json:"title"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *uint      `json:"completed_by"`
	SortOrder   int        `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Checklist) TableName() string     { return "checklists" }
func (ChecklistItem) TableName() string { return "checklist_items" }

// LinkedWorkItem returns the entity type and id of the work item this
// checklist drives, or ok=false when it is not linked to one.
func (c *Checklist) LinkedWorkItem() (entityType string, id uint, ok bool) {
	switch {
	case c.RelatedIssueID != nil:
		return EntityTypeIssue, *c.RelatedIssueID, true
	case c.RelatedActionID != nil:
		return EntityTypeActionItem, *c.RelatedActionID, true
	}
	return "", 0, false
}
