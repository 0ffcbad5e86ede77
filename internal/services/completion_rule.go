package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCompletionThreshold applies when a rule is saved without a threshold.
const DefaultCompletionThreshold = 100

// rulePrecedenceOrder mirrors precedes() so listings read in match order.
const rulePrecedenceOrder = "CASE WHEN project_id IS NULL THEN 1 ELSE 0 END, entity_type, " +
	"CASE WHEN source_status IS NULL THEN 1 ELSE 0 END, id"

// CompletionRuleService stores completion-action rules and resolves the
// winning rule for a work item.
type CompletionRuleService struct {
	db *gorm.DB
}

func NewCompletionRuleService(db *gorm.DB) *CompletionRuleService {
	return &CompletionRuleService{db: db}
}

// RuleFilter narrows List. A ProjectID returns that project's rules plus global ones.
type RuleFilter struct {
	ProjectID  *uint
	EntityType string
}

// UpsertRuleRequest creates or replaces the rule for (EntityType, ProjectID, SourceStatus).
type UpsertRuleRequest struct {
	EntityType          string  `json:"entity_type" binding:"required"`
	ProjectID           *uint   `json:"project_id"`
	SourceStatus        *string `json:"source_status"`
	TargetStatus        string  `json:"target_status" binding:"required"`
	CompletionThreshold *int    `json:"completion_threshold"`
	NotifyAssignee      bool    `json:"notify_assignee"`
	CreatedBy           *uint   `json:"-"`
}

// MatchRequest is a dry-run input for the matcher.
type MatchRequest struct {
	EntityType    string `json:"entity_type" binding:"required"`
	ProjectID     uint   `json:"project_id"`
	CurrentStatus string `json:"current_status"`
	Percentage    int    `json:"percentage"`
}

func (s *CompletionRuleService) List(ctx context.Context, filter RuleFilter) ([]models.CompletionActionRule, error) {
	query := s.db.WithContext(ctx).Model(&models.CompletionActionRule{}).Where("is_active = ?", true)
	if filter.EntityType != "" {
		if !models.IsValidEntityType(filter.EntityType) {
			return nil, invalidArgf("entity_type must be %q or %q", models.EntityTypeIssue, models.EntityTypeActionItem)
		}
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.ProjectID != nil {
		query = query.Where("(project_id IS NULL OR project_id = ?)", *filter.ProjectID)
	}

	var rules []models.CompletionActionRule
	if err := query.Order(rulePrecedenceOrder).Find(&rules).Error; err != nil {
		return nil, storageErr("list completion rules", err)
	}
	return rules, nil
}

func (s *CompletionRuleService) Get(ctx context.Context, id uint) (*models.CompletionActionRule, error) {
	var rule models.CompletionActionRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, storageErr(fmt.Sprintf("load completion rule %d", id), err)
	}
	return &rule, nil
}

// Upsert validates req and writes it keyed by its scope. An existing rule for
// the same scope is overwritten and reactivated, even if it was deactivated.
func (s *CompletionRuleService) Upsert(ctx context.Context, req *UpsertRuleRequest) (*models.CompletionActionRule, error) {
	rule, err := buildRule(req)
	if err != nil {
		return nil, err
	}

	var stored models.CompletionActionRule
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"target_status", "completion_threshold", "notify_assignee", "is_active", "updated_at",
			}),
		}).Create(rule).Error
		if err != nil {
			return err
		}
		return tx.Where("scope_key = ?", rule.ScopeKey).First(&stored).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert completion rule: %w", err)
	}
	return &stored, nil
}

func buildRule(req *UpsertRuleRequest) (*models.CompletionActionRule, error) {
	entityType := strings.TrimSpace(req.EntityType)
	if !models.IsValidEntityType(entityType) {
		return nil, invalidArgf("entity_type must be %q or %q", models.EntityTypeIssue, models.EntityTypeActionItem)
	}

	threshold := DefaultCompletionThreshold
	if req.CompletionThreshold != nil {
		threshold = *req.CompletionThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, invalidArgf("completion_threshold must be between 0 and 100, got %d", threshold)
	}

	target := strings.TrimSpace(req.TargetStatus)
	if target == "" {
		return nil, invalidArgf("target_status is required")
	}

	var source *string
	if req.SourceStatus != nil {
		if v := strings.TrimSpace(*req.SourceStatus); v != "" {
			source = &v
		}
	}

	rule := &models.CompletionActionRule{
		EntityType:          entityType,
		ProjectID:           req.ProjectID,
		SourceStatus:        source,
		TargetStatus:        target,
		CompletionThreshold: threshold,
		NotifyAssignee:      req.NotifyAssignee,
		IsActive:            true,
		CreatedBy:           req.CreatedBy,
	}
	rule.ScopeKey = models.RuleScopeKey(rule.EntityType, rule.ProjectID, rule.SourceStatus)
	return rule, nil
}

// Deactivate soft-deletes a rule. Rules are never removed from the table.
func (s *CompletionRuleService) Deactivate(ctx context.Context, id uint) (*models.CompletionActionRule, error) {
	db := s.db.WithContext(ctx)

	var rule models.CompletionActionRule
	if err := db.First(&rule, id).Error; err != nil {
		return nil, storageErr(fmt.Sprintf("load completion rule %d", id), err)
	}
	if err := db.Model(&rule).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate completion rule %d: %w", id, err)
	}
	rule.IsActive = false
	return &rule, nil
}

// Match loads the candidate rules for a work item and returns the winner, or nil.
func (s *CompletionRuleService) Match(ctx context.Context, entityType string, projectID uint, currentStatus string, percentage int) (*models.CompletionActionRule, error) {
	candidates, err := s.List(ctx, RuleFilter{ProjectID: &projectID, EntityType: entityType})
	if err != nil {
		return nil, err
	}
	return MatchRule(candidates, entityType, projectID, currentStatus, percentage), nil
}

// Preview runs the matcher for a hypothetical work item without touching it.
func (s *CompletionRuleService) Preview(ctx context.Context, req *MatchRequest) (*models.CompletionActionRule, error) {
	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, invalidArgf("percentage must be between 0 and 100, got %d", req.Percentage)
	}
	return s.Match(ctx, req.EntityType, req.ProjectID, req.CurrentStatus, req.Percentage)
}
