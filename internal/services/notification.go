package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"gorm.io/gorm"
)

const NotificationTypeStatusAutomation = "status_automation"

// NotificationService turns notification intents into in-app notifications.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Deliver writes a notification for the intent's assignee. Inactive or
// deleted users are skipped without error.
func (s *NotificationService) Deliver(ctx context.Context, intent *NotificationIntent) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, intent.AssigneeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warnf("[Notification] assignee %d not found, skipping", intent.AssigneeID)
			return nil
		}
		return fmt.Errorf("load assignee %d: %w", intent.AssigneeID, err)
	}
	if !user.IsActive {
		logger.Infof("[Notification] assignee %s is inactive, skipping", user.Username)
		return nil
	}

	notification := &models.Notification{
		UserID:     user.ID,
		Type:       NotificationTypeStatusAutomation,
		EntityType: intent.EntityType,
		EntityID:   intent.EntityID,
		Title:      s.buildTitle(intent),
		Message:    s.buildMessage(intent),
	}
	if err := db.Create(notification).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	LogInfo("notification", "deliver", notification.Title, &user.ID, "", "", intent)
	return nil
}

func (s *NotificationService) buildTitle(intent *NotificationIntent) string {
	return fmt.Sprintf("%s #%d moved to %s", entityLabel(intent.EntityType), intent.EntityID, intent.NewStatus)
}

func (s *NotificationService) buildMessage(intent *NotificationIntent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d was moved from %q to %q ", entityLabel(intent.EntityType), intent.EntityID, intent.OldStatus, intent.NewStatus)
	sb.WriteString("because its checklists reached the completion threshold")
	if intent.RuleID != 0 {
		fmt.Fprintf(&sb, " of rule #%d", intent.RuleID)
	}
	sb.WriteString(".")
	return sb.String()
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func entityLabel(entityType string) string {
	switch entityType {
	case models.EntityTypeIssue:
		return "Issue"
	case models.EntityTypeActionItem:
		return "Action item"
	}
	return entityType
}
