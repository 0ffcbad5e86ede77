package services

import (
	"testing"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
)

func activeRule(id uint, projectID *uint, source *string, target string, threshold int) models.CompletionActionRule {
	return models.CompletionActionRule{
		ID:                  id,
		EntityType:          models.EntityTypeIssue,
		ProjectID:           projectID,
		SourceStatus:        source,
		TargetStatus:        target,
		CompletionThreshold: threshold,
		IsActive:            true,
	}
}

func TestMatchRule_ProjectBeatsGlobal(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, strPtr("In Progress"), "Done", 100),
		activeRule(2, uintPtr(5), strPtr("In Progress"), "Review", 80),
	}

	got := MatchRule(rules, models.EntityTypeIssue, 5, "In Progress", 85)
	if got == nil {
		t.Fatal("expected a match at 85%")
	}
	if got.ID != 2 || got.TargetStatus != "Review" {
		t.Errorf("winner = rule %d (%s), want project rule 2 (Review)", got.ID, got.TargetStatus)
	}

	// At 100% both qualify and the project rule still wins.
	got = MatchRule(rules, models.EntityTypeIssue, 5, "In Progress", 100)
	if got == nil || got.ID != 2 {
		t.Errorf("winner at 100%% = %+v, want rule 2", got)
	}

	// Another project only sees the global rule.
	got = MatchRule(rules, models.EntityTypeIssue, 6, "In Progress", 100)
	if got == nil || got.ID != 1 {
		t.Errorf("winner for project 6 = %+v, want rule 1", got)
	}
	if got := MatchRule(rules, models.EntityTypeIssue, 6, "In Progress", 85); got != nil {
		t.Errorf("project 6 at 85%% should not match, got rule %d", got.ID)
	}
}

func TestMatchRule_SpecificSourceBeatsWildcard(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, uintPtr(5), nil, "Done", 50),
		activeRule(2, uintPtr(5), strPtr("Blocked"), "In Review", 50),
	}

	if got := MatchRule(rules, models.EntityTypeIssue, 5, "Blocked", 60); got == nil || got.ID != 2 {
		t.Errorf("Blocked item winner = %+v, want rule 2", got)
	}
	if got := MatchRule(rules, models.EntityTypeIssue, 5, "To Do", 60); got == nil || got.ID != 1 {
		t.Errorf("To Do item winner = %+v, want wildcard rule 1", got)
	}
}

func TestMatchRule_ProjectWildcardBeatsGlobalSpecific(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, strPtr("In Progress"), "Done", 0),
		activeRule(2, uintPtr(5), nil, "Review", 0),
	}

	if got := MatchRule(rules, models.EntityTypeIssue, 5, "In Progress", 10); got == nil || got.ID != 2 {
		t.Errorf("winner = %+v, want project wildcard rule 2", got)
	}
}

func TestMatchRule_ThresholdBoundary(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, nil, "Done", 80),
	}

	if got := MatchRule(rules, models.EntityTypeIssue, 1, "In Progress", 80); got == nil {
		t.Error("threshold 80 should fire at 80%")
	}
	if got := MatchRule(rules, models.EntityTypeIssue, 1, "In Progress", 79); got != nil {
		t.Error("threshold 80 should not fire at 79%")
	}
}

func TestMatchRule_ZeroPercentNeedsExplicitZeroThreshold(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, nil, "Done", 1),
		activeRule(2, nil, strPtr("To Do"), "Done", 0),
	}

	if got := MatchRule(rules, models.EntityTypeIssue, 1, "In Progress", 0); got != nil {
		t.Errorf("0%% should not match, got rule %d", got.ID)
	}
	if got := MatchRule(rules, models.EntityTypeIssue, 1, "To Do", 0); got == nil || got.ID != 2 {
		t.Errorf("explicit zero-threshold rule should match, got %+v", got)
	}
}

func TestMatchRule_SkipsIneligible(t *testing.T) {
	inactive := activeRule(1, nil, nil, "Done", 0)
	inactive.IsActive = false
	actionItem := activeRule(2, nil, nil, "Done", 0)
	actionItem.EntityType = models.EntityTypeActionItem
	otherStatus := activeRule(3, nil, strPtr("Blocked"), "Done", 0)

	rules := []models.CompletionActionRule{inactive, actionItem, otherStatus}
	if got := MatchRule(rules, models.EntityTypeIssue, 1, "In Progress", 100); got != nil {
		t.Errorf("expected no match, got rule %d", got.ID)
	}
	if got := MatchRule(nil, models.EntityTypeIssue, 1, "In Progress", 100); got != nil {
		t.Error("empty rule set should not match")
	}
}

func TestMatchRule_TieBreaksOnLowestID(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(9, uintPtr(5), nil, "Later", 10),
		activeRule(4, uintPtr(5), nil, "Earlier", 90),
		activeRule(7, uintPtr(5), nil, "Middle", 50),
	}

	got := MatchRule(rules, models.EntityTypeIssue, 5, "Anything", 95)
	if got == nil || got.ID != 4 {
		t.Errorf("winner = %+v, want lowest id 4", got)
	}
}

func TestMatchRule_OrderIndependent(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, nil, "A", 0),
		activeRule(2, nil, strPtr("X"), "B", 0),
		activeRule(3, uintPtr(1), nil, "C", 0),
		activeRule(4, uintPtr(1), strPtr("X"), "D", 0),
	}
	reversed := make([]models.CompletionActionRule, len(rules))
	for i := range rules {
		reversed[len(rules)-1-i] = rules[i]
	}

	a := MatchRule(rules, models.EntityTypeIssue, 1, "X", 50)
	b := MatchRule(reversed, models.EntityTypeIssue, 1, "X", 50)
	if a == nil || b == nil || a.ID != 4 || b.ID != 4 {
		t.Errorf("winners differ by input order: %+v vs %+v", a, b)
	}
}

func TestMatchRule_ReturnsCopy(t *testing.T) {
	rules := []models.CompletionActionRule{activeRule(1, nil, nil, "Done", 0)}

	got := MatchRule(rules, models.EntityTypeIssue, 1, "To Do", 0)
	got.TargetStatus = "Changed"
	if rules[0].TargetStatus != "Done" {
		t.Error("MatchRule should not hand out a pointer into the input slice")
	}
}

func TestSortByPrecedence(t *testing.T) {
	rules := []models.CompletionActionRule{
		activeRule(1, nil, nil, "", 0),
		activeRule(2, nil, strPtr("X"), "", 0),
		activeRule(3, uintPtr(1), nil, "", 0),
		activeRule(4, uintPtr(1), strPtr("X"), "", 0),
		activeRule(5, uintPtr(2), strPtr("X"), "", 0),
	}

	SortByPrecedence(rules)

	want := []uint{4, 5, 3, 2, 1}
	for i, id := range want {
		if rules[i].ID != id {
			t.Errorf("position %d = rule %d, want %d", i, rules[i].ID, id)
		}
	}
}
