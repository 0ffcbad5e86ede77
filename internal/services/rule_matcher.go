package services

import (
	"sort"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
)

// RuleQualifies reports whether rule applies to a work item of entityType in
// projectID, currently in currentStatus, at the given completion percentage.
func RuleQualifies(rule *models.CompletionActionRule, entityType string, projectID uint, currentStatus string, percentage int) bool {
	if !rule.IsActive || rule.EntityType != entityType {
		return false
	}
	if rule.ProjectID != nil && *rule.ProjectID != projectID {
		return false
	}
	if rule.SourceStatus != nil && *rule.SourceStatus != currentStatus {
		return false
	}
	return percentage >= rule.CompletionThreshold
}

// precedes orders rules: project-scoped before global, specific source status
// before wildcard, then lowest id.
func precedes(a, b *models.CompletionActionRule) bool {
	if a.IsGlobal() != b.IsGlobal() {
		return !a.IsGlobal()
	}
	if a.IsWildcard() != b.IsWildcard() {
		return !a.IsWildcard()
	}
	return a.ID < b.ID
}

// SortByPrecedence sorts rules in place, highest precedence first.
func SortByPrecedence(rules []models.CompletionActionRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return precedes(&rules[i], &rules[j])
	})
}

// MatchRule returns the highest-precedence qualifying rule, or nil.
// The input order does not matter.
func MatchRule(rules []models.CompletionActionRule, entityType string, projectID uint, currentStatus string, percentage int) *models.CompletionActionRule {
	var winner *models.CompletionActionRule
	for i := range rules {
		rule := &rules[i]
		if !RuleQualifies(rule, entityType, projectID, currentStatus, percentage) {
			continue
		}
		if winner == nil || precedes(rule, winner) {
			winner = rule
		}
	}
	if winner == nil {
		return nil
	}
	matched := *winner
	return &matched
}
