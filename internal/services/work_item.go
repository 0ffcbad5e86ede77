package services

import (
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
)

// WorkItem is the engine's view of an issue or action item.
type WorkItem struct {
	EntityType string    `json:"entity_type"`
	ID         uint      `json:"id"`
	ProjectID  uint      `json:"project_id"`
	Status     string    `json:"status"`
	AssigneeID *uint     `json:"assignee_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WorkItemRepository reads and writes the status of one work item table.
// The caller passes the storage handle so the same repository can run inside
// or outside a transaction.
type WorkItemRepository interface {
	EntityType() string
	// Get returns the item, or an error wrapping ErrNotFound.
	Get(db *gorm.DB, id uint) (*WorkItem, error)
	// SetStatus moves the item from -> to only if it is still in from.
	// It returns the number of rows changed (0 or 1).
	SetStatus(db *gorm.DB, id uint, from, to string, at time.Time) (int64, error)
}

// IssueRepository implements WorkItemRepository over the issues table.
type IssueRepository struct{}

func (IssueRepository) EntityType() string { return models.EntityTypeIssue }

func (IssueRepository) Get(db *gorm.DB, id uint) (*WorkItem, error) {
	var issue models.Issue
	if err := db.First(&issue, id).Error; err != nil {
		return nil, storageErr("load issue", err)
	}
	return &WorkItem{
		EntityType: models.EntityTypeIssue,
		ID:         issue.ID,
		ProjectID:  issue.ProjectID,
		Status:     issue.Status,
		AssigneeID: issue.AssigneeID,
		UpdatedAt:  issue.UpdatedAt,
	}, nil
}

func (IssueRepository) SetStatus(db *gorm.DB, id uint, from, to string, at time.Time) (int64, error) {
	res := db.Model(&models.Issue{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	return res.RowsAffected, res.Error
}

// ActionItemRepository implements WorkItemRepository over the action_items table.
type ActionItemRepository struct{}

func (ActionItemRepository) EntityType() string { return models.EntityTypeActionItem }

func (ActionItemRepository) Get(db *gorm.DB, id uint) (*WorkItem, error) {
	var item models.ActionItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, storageErr("load action item", err)
	}
	return &WorkItem{
		EntityType: models.EntityTypeActionItem,
		ID:         item.ID,
		ProjectID:  item.ProjectID,
		Status:     item.Status,
		AssigneeID: item.AssigneeID,
		UpdatedAt:  item.UpdatedAt,
	}, nil
}

func (ActionItemRepository) SetStatus(db *gorm.DB, id uint, from, to string, at time.Time) (int64, error) {
	res := db.Model(&models.ActionItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	return res.RowsAffected, res.Error
}

// WorkItemRepositories resolves a repository by entity type.
type WorkItemRepositories map[string]WorkItemRepository

// DefaultWorkItemRepositories returns the issue and action item repositories.
func DefaultWorkItemRepositories() WorkItemRepositories {
	return WorkItemRepositories{
		models.EntityTypeIssue:      IssueRepository{},
		models.EntityTypeActionItem: ActionItemRepository{},
	}
}

// For returns the repository for entityType or ErrInvalidArgument.
func (r WorkItemRepositories) For(entityType string) (WorkItemRepository, error) {
	repo, ok := r[entityType]
	if !ok {
		return nil, invalidArgf("unknown entity type %q", entityType)
	}
	return repo, nil
}
