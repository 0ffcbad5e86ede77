package models

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// CompletionActionRule moves a work item to TargetStatus once the aggregate
// completion of its linked checklists reaches CompletionThreshold percent.
// A nil ProjectID makes the rule global; a nil SourceStatus matches any status.
type CompletionActionRule struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	EntityType          string    `gorm:"size:20;not null;index" json:"entity_type"` // issue, action_item
	ProjectID           *uint     `gorm:"index" json:"project_id"`
	SourceStatus        *string   `gorm:"size:50" json:"source_status"`
	TargetStatus        string    `gorm:"size:50;not null" json:"target_status"`
	CompletionThreshold int       `gorm:"not null" json:"completion_threshold"`
	NotifyAssignee      bool      `gorm:"default:false" json:"notify_assignee"`
	IsActive            bool      `gorm:"default:true;index" json:"is_active"`
	ScopeKey            string    `gorm:"uniqueIndex;size:200;not null" json:"-"`
	CreatedBy           *uint     `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (CompletionActionRule) TableName() string { return "checklist_completion_actions" }

// BeforeSave keeps ScopeKey in sync with the rule's scope columns.
func (r *CompletionActionRule) BeforeSave(tx *gorm.DB) error {
	r.ScopeKey = RuleScopeKey(r.EntityType, r.ProjectID, r.SourceStatus)
	return nil
}

// IsGlobal reports whether the rule applies to every project.
func (r *CompletionActionRule) IsGlobal() bool { return r.ProjectID == nil }

// IsWildcard reports whether the rule applies regardless of current status.
func (r *CompletionActionRule) IsWildcard() bool { return r.SourceStatus == nil }

// RuleScopeKey encodes (entityType, projectID, sourceStatus) into a single
// non-null value so the one-active-rule-per-scope constraint can be a plain
// unique index. SQL unique indexes treat NULLs as distinct, which would let
// duplicate global or wildcard rules slip through.
func RuleScopeKey(entityType string, projectID *uint, sourceStatus *string) string {
	project := "*"
	if projectID != nil {
		project = strconv.FormatUint(uint64(*projectID), 10)
	}
	source := "*"
	if sourceStatus != nil {
		source = "=" + *sourceStatus
	}
	return fmt.Sprintf("%s/%s/%s", entityType, project, source)
}
