package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
)

// ToggleResult is returned by ToggleItem. Automation is nil when nothing moved.
type ToggleResult struct {
	Item       *models.ChecklistItem `json:"item"`
	Checklist  *models.Checklist     `json:"checklist"`
	Automation *AutomationResult     `json:"automation,omitempty"`
}

type ChecklistService struct {
	db         *gorm.DB
	automation *AutomationService
}

func NewChecklistService(db *gorm.DB, automation *AutomationService) *ChecklistService {
	return &ChecklistService{db: db, automation: automation}
}

func (s *ChecklistService) GetChecklist(ctx context.Context, id uint) (*models.Checklist, error) {
	var checklist models.Checklist
	if err := s.db.WithContext(ctx).First(&checklist, id).Error; err != nil {
		return nil, storageErr(fmt.Sprintf("load checklist %d", id), err)
	}
	return &checklist, nil
}

// ToggleItem sets an item's completion and rewrites its checklist's counters
// in one transaction. Automation runs after commit; its outcome never turns
// a successful toggle into an error.
func (s *ChecklistService) ToggleItem(ctx context.Context, itemID uint, completed bool, userID *uint) (*ToggleResult, error) {
	var item models.ChecklistItem
	var checklist models.Checklist

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			return storageErr(fmt.Sprintf("load checklist item %d", itemID), err)
		}

		updates := map[string]interface{}{"is_completed": completed}
		if completed {
			now := time.Now()
			updates["completed_at"] = now
			updates["completed_by"] = userID
		} else {
			updates["completed_at"] = nil
			updates["completed_by"] = nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return fmt.Errorf("update checklist item %d: %w", itemID, err)
		}

		updated, err := recountChecklist(tx, item.ChecklistID)
		if err != nil {
			return err
		}
		checklist = *updated

		var reloaded models.ChecklistItem
		if err := tx.First(&reloaded, itemID).Error; err != nil {
			return storageErr(fmt.Sprintf("reload checklist item %d", itemID), err)
		}
		item = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ToggleResult{Item: &item, Checklist: &checklist}
	if s.automation != nil {
		result.Automation = s.automation.OnChecklistChanged(ctx, checklist.ID)
	}
	return result, nil
}

// Recount repairs one checklist's denormalized counters from its item rows.
func (s *ChecklistService) Recount(ctx context.Context, checklistID uint) (*models.Checklist, error) {
	var checklist *models.Checklist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		checklist, err = recountChecklist(tx, checklistID)
		return err
	})
	return checklist, err
}

// RecountAll repairs every checklist and returns how many had drifted.
func (s *ChecklistService) RecountAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Checklist{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, storageErr("list checklists", err)
	}

	fixed := 0
	for _, id := range ids {
		before, err := s.GetChecklist(ctx, id)
		if err != nil {
			return fixed, err
		}
		after, err := s.Recount(ctx, id)
		if err != nil {
			return fixed, err
		}
		if before.TotalItems != after.TotalItems || before.CompletedItems != after.CompletedItems {
			fixed++
		}
	}
	return fixed, nil
}

func recountChecklist(tx *gorm.DB, checklistID uint) (*models.Checklist, error) {
	var checklist models.Checklist
	if err := tx.First(&checklist, checklistID).Error; err != nil {
		return nil, storageErr(fmt.Sprintf("load checklist %d", checklistID), err)
	}

	summary, err := countChecklistItems(tx, checklistID)
	if err != nil {
		return nil, err
	}

	err = tx.Model(&checklist).Updates(map[string]interface{}{
		"total_items":     summary.Total,
		"completed_items": summary.Completed,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update checklist %d counters: %w", checklistID, err)
	}
	checklist.TotalItems = summary.Total
	checklist.CompletedItems = summary.Completed
	return &checklist, nil
}
