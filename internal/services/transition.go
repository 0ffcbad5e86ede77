package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
)

// TransitionApplier writes an automated status change and its audit row as
// one transaction.
type TransitionApplier struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTransitionApplier(db *gorm.DB) *TransitionApplier {
	return &TransitionApplier{db: db, now: time.Now}
}

// Apply moves item to toStatus. The status write is a compare-and-set against
// item.Status, so two concurrent runs for the same item produce one change and
// one history row. The loser gets ErrStaleTransition.
func (a *TransitionApplier) Apply(ctx context.Context, repo WorkItemRepository, item *WorkItem, toStatus string) (*WorkItem, error) {
	if item.Status == toStatus {
		return nil, invalidArgf("self-transition %s %d already in %q", item.EntityType, item.ID, toStatus)
	}

	now := a.now()
	var updated *WorkItem
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := repo.SetStatus(tx, item.ID, item.Status, toStatus, now)
		if err != nil {
			return fmt.Errorf("%w: update %s %d status: %v", ErrTransitionFailed, item.EntityType, item.ID, err)
		}
		if rows == 0 {
			return a.explainMiss(tx, repo, item, toStatus)
		}

		history := &models.StatusHistory{
			ItemType:   item.EntityType,
			ItemID:     item.ID,
			ProjectID:  item.ProjectID,
			FromStatus: item.Status,
			ToStatus:   toStatus,
			ChangedBy:  nil,
			CreatedAt:  now,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("%w: record status history for %s %d: %v", ErrTransitionFailed, item.EntityType, item.ID, err)
		}

		updated = &WorkItem{
			EntityType: item.EntityType,
			ID:         item.ID,
			ProjectID:  item.ProjectID,
			Status:     toStatus,
			AssigneeID: item.AssigneeID,
			UpdatedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// explainMiss re-reads the row after a CAS miss to tell a vanished item
// apart from one that another writer already moved.
func (a *TransitionApplier) explainMiss(tx *gorm.DB, repo WorkItemRepository, item *WorkItem, toStatus string) error {
	current, err := repo.Get(tx, item.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s %d vanished: %w", ErrTransitionFailed, item.EntityType, item.ID, ErrNotFound)
		}
		return fmt.Errorf("%w: %v", ErrTransitionFailed, err)
	}
	if current.Status == toStatus {
		return fmt.Errorf("%w: %s %d already in %q", ErrStaleTransition, item.EntityType, item.ID, toStatus)
	}
	return fmt.Errorf("%w: %s %d moved from %q to %q", ErrStaleTransition, item.EntityType, item.ID, item.Status, current.Status)
}
