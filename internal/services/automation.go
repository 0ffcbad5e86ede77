package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/telemetry"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const automationModule = "automation"

// AutomationResult describes a transition made by automation.
type AutomationResult struct {
	EntityType string                       `json:"entity_type"`
	EntityID   uint                         `json:"entity_id"`
	OldStatus  string                       `json:"old_status"`
	NewStatus  string                       `json:"new_status"`
	Completion CompletionSummary            `json:"completion"`
	Rule       *models.CompletionActionRule `json:"rule"`
}

// AutomationService moves work items when their checklists reach a rule's
// completion threshold.
type AutomationService struct {
	db         *gorm.DB
	calculator *CompletionCalculator
	rules      *CompletionRuleService
	applier    *TransitionApplier
	repos      WorkItemRepositories
	notifier   Notifier
	hub        *SSEHub
	cfg        config.AutomationConfig
	log        zerolog.Logger
	metrics    *telemetry.AutomationMetrics
}

// NewAutomationService wires the engine. notifier and hub may be nil.
func NewAutomationService(db *gorm.DB, notifier Notifier, hub *SSEHub, cfg config.AutomationConfig) *AutomationService {
	return &AutomationService{
		db:         db,
		calculator: NewCompletionCalculator(db),
		rules:      NewCompletionRuleService(db),
		applier:    NewTransitionApplier(db),
		repos:      DefaultWorkItemRepositories(),
		notifier:   notifier,
		hub:        hub,
		cfg:        cfg,
		log:        logger.Module(automationModule),
		metrics:    telemetry.NewAutomationMetrics(),
	}
}

// OnChecklistChanged re-evaluates the work item linked to a checklist after
// one of its items changed. It never fails: errors and panics are logged and
// reported as a nil result, the same as "nothing to do".
func (s *AutomationService) OnChecklistChanged(ctx context.Context, checklistID uint) (result *AutomationResult) {
	if !s.cfg.Enabled {
		return nil
	}
	subject := map[string]interface{}{"checklist_id": checklistID}
	defer s.recoverFailure(subject, &result)

	result, err := s.evaluateChecklist(ctx, checklistID)
	if err != nil {
		s.reportFailure(err, subject)
		return nil
	}
	return result
}

// EvaluateWorkItem re-evaluates a work item directly. Same contract as
// OnChecklistChanged.
func (s *AutomationService) EvaluateWorkItem(ctx context.Context, entityType string, id uint) (result *AutomationResult) {
	if !s.cfg.Enabled {
		return nil
	}
	subject := map[string]interface{}{"entity_type": entityType, "entity_id": id}
	defer s.recoverFailure(subject, &result)

	result, err := s.evaluateWorkItem(ctx, entityType, id)
	if err != nil {
		s.reportFailure(err, subject)
		return nil
	}
	return result
}

// recoverFailure must be deferred directly by an entry point.
func (s *AutomationService) recoverFailure(subject map[string]interface{}, result **AutomationResult) {
	if r := recover(); r != nil {
		s.reportFailure(fmt.Errorf("automation panic: %v", r), subject)
		*result = nil
	}
}

func (s *AutomationService) reportFailure(err error, subject map[string]interface{}) {
	s.log.Error().Err(err).Fields(subject).Msg("status automation failed")
	LogError(automationModule, "evaluate_failed", err.Error(), nil, "", "", subject)
}

func (s *AutomationService) evaluateChecklist(ctx context.Context, checklistID uint) (*AutomationResult, error) {
	var checklist models.Checklist
	if err := s.db.WithContext(ctx).First(&checklist, checklistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Debug().Uint("checklist_id", checklistID).Msg("checklist gone, skipping")
			return nil, nil
		}
		return nil, storageErr(fmt.Sprintf("load checklist %d", checklistID), err)
	}

	if checklist.IsStandalone {
		return nil, nil
	}
	entityType, entityID, ok := checklist.LinkedWorkItem()
	if !ok {
		return nil, nil
	}
	return s.evaluateWorkItem(ctx, entityType, entityID)
}

func (s *AutomationService) evaluateWorkItem(ctx context.Context, entityType string, id uint) (*AutomationResult, error) {
	ctx, ev := s.metrics.Start(ctx, entityType, id)
	result, err := s.transitionIfDue(ctx, entityType, id)
	switch {
	case err != nil:
		ev.End(ctx, telemetry.OutcomeFailed, err)
	case result == nil:
		ev.End(ctx, telemetry.OutcomeNoop, nil)
	default:
		ev.Transitioned(ctx, result.OldStatus, result.NewStatus)
		ev.End(ctx, telemetry.OutcomeTransitioned, nil)
	}
	return result, err
}

func (s *AutomationService) transitionIfDue(ctx context.Context, entityType string, id uint) (*AutomationResult, error) {
	repo, err := s.repos.For(entityType)
	if err != nil {
		return nil, err
	}

	item, err := repo.Get(s.db.WithContext(ctx), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	completion, err := s.calculator.ComputeAggregate(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	rule, err := s.rules.Match(ctx, entityType, item.ProjectID, item.Status, completion.Percentage)
	if err != nil {
		return nil, err
	}
	if rule == nil || rule.TargetStatus == item.Status {
		return nil, nil
	}

	updated, err := s.applier.Apply(ctx, repo, item, rule.TargetStatus)
	if err != nil {
		if errors.Is(err, ErrStaleTransition) {
			s.log.Info().Err(err).Msg("transition lost to a concurrent update")
			return nil, nil
		}
		return nil, err
	}

	result := &AutomationResult{
		EntityType: entityType,
		EntityID:   id,
		OldStatus:  item.Status,
		NewStatus:  updated.Status,
		Completion: *completion,
		Rule:       rule,
	}
	s.afterTransition(ctx, updated, result)
	return result, nil
}

// afterTransition signals listeners. Nothing here can undo the transition.
func (s *AutomationService) afterTransition(ctx context.Context, item *WorkItem, result *AutomationResult) {
	s.log.Info().
		Str("entity_type", result.EntityType).
		Uint("entity_id", result.EntityID).
		Str("from", result.OldStatus).
		Str("to", result.NewStatus).
		Int("percentage", result.Completion.Percentage).
		Uint("rule_id", result.Rule.ID).
		Msg("status transitioned")
	LogInfo(automationModule, "transition",
		fmt.Sprintf("%s %d: %s -> %s", result.EntityType, result.EntityID, result.OldStatus, result.NewStatus),
		nil, "", "", result)

	if s.hub != nil {
		s.hub.Publish(StatusChangeEvent{
			EntityType: result.EntityType,
			EntityID:   result.EntityID,
			ProjectID:  item.ProjectID,
			OldStatus:  result.OldStatus,
			NewStatus:  result.NewStatus,
			Percentage: result.Completion.Percentage,
			RuleID:     result.Rule.ID,
			ChangedAt:  item.UpdatedAt,
		})
	}

	if !result.Rule.NotifyAssignee || item.AssigneeID == nil || !s.cfg.NotifyAssignees || s.notifier == nil {
		return
	}
	intent := &NotificationIntent{
		AssigneeID: *item.AssigneeID,
		EntityType: result.EntityType,
		EntityID:   result.EntityID,
		ProjectID:  item.ProjectID,
		OldStatus:  result.OldStatus,
		NewStatus:  result.NewStatus,
		RuleID:     result.Rule.ID,
	}
	if err := s.notifier.Enqueue(ctx, intent); err != nil {
		s.log.Warn().Err(err).Uint("assignee_id", intent.AssigneeID).Msg("notification intent not queued")
	}
}
