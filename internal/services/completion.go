package services

import (
	"context"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
)

// CompletionSummary is a completed/total ratio with its rounded percentage.
type CompletionSummary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

// NewCompletionSummary derives the percentage for completed out of total.
func NewCompletionSummary(total, completed int) CompletionSummary {
	return CompletionSummary{
		Total:      total,
		Completed:  completed,
		Percentage: CompletionPercentage(total, completed),
	}
}

// CompletionPercentage rounds completed/total*100 half-up to an integer.
// An empty total is 0%, never complete.
func CompletionPercentage(total, completed int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// CompletionCalculator computes checklist completion for work items.
type CompletionCalculator struct {
	db *gorm.DB
}

func NewCompletionCalculator(db *gorm.DB) *CompletionCalculator {
	return &CompletionCalculator{db: db}
}

// ComputeAggregate sums the denormalized counters of every non-standalone
// checklist linked to the work item. The result is never cached.
func (c *CompletionCalculator) ComputeAggregate(ctx context.Context, entityType string, entityID uint) (*CompletionSummary, error) {
	var column string
	switch entityType {
	case models.EntityTypeIssue:
		column = "related_issue_id"
	case models.EntityTypeActionItem:
		column = "related_action_id"
	default:
		return nil, invalidArgf("unknown entity type %q", entityType)
	}

	var sums struct {
		Total     int
		Completed int
	}
	err := c.db.WithContext(ctx).Model(&models.Checklist{}).
		Select("COALESCE(SUM(total_items), 0) AS total, COALESCE(SUM(completed_items), 0) AS completed").
		Where(column+" = ?", entityID).
		Where("(is_standalone = ? OR is_standalone IS NULL)", false).
		Scan(&sums).Error
	if err != nil {
		return nil, storageErr("aggregate checklist completion", err)
	}

	summary := NewCompletionSummary(sums.Total, sums.Completed)
	return &summary, nil
}

// ComputeChecklist recomputes one checklist's completion from its item rows.
func (c *CompletionCalculator) ComputeChecklist(ctx context.Context, checklistID uint) (*CompletionSummary, error) {
	summary, err := countChecklistItems(c.db.WithContext(ctx), checklistID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func countChecklistItems(db *gorm.DB, checklistID uint) (CompletionSummary, error) {
	var counts struct {
		Total     int
		Completed int
	}
	err := db.Model(&models.ChecklistItem{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed").
		Where("checklist_id = ?", checklistID).
		Scan(&counts).Error
	if err != nil {
		return CompletionSummary{}, storageErr("count checklist items", err)
	}
	return NewCompletionSummary(counts.Total, counts.Completed), nil
}
