package services

import (
	"context"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
)

type StatusHistoryService struct {
	db *gorm.DB
}

func NewStatusHistoryService(db *gorm.DB) *StatusHistoryService {
	return &StatusHistoryService{db: db}
}

// List returns a work item's status changes, newest first.
func (s *StatusHistoryService) List(ctx context.Context, entityType string, id uint, page, pageSize int) ([]models.StatusHistory, int64, error) {
	if !models.IsValidEntityType(entityType) {
		return nil, 0, invalidArgf("unknown entity type %q", entityType)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	scope := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.StatusHistory{}).
			Where("item_type = ? AND item_id = ?", entityType, id)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, storageErr("count status history", err)
	}

	var rows []models.StatusHistory
	err := scope().Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, storageErr("list status history", err)
	}
	return rows, total, nil
}
