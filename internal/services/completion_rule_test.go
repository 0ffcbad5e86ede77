package services

import (
	"context"
	"testing"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRuleService_UpsertValidation(t *testing.T) {
	svc := NewCompletionRuleService(newTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name string
		req  UpsertRuleRequest
	}{
		{"unknown entity type", UpsertRuleRequest{EntityType: "epic", TargetStatus: "Done"}},
		{"negative threshold", UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done", CompletionThreshold: intPtr(-1)}},
		{"threshold above 100", UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done", CompletionThreshold: intPtr(101)}},
		{"blank target", UpsertRuleRequest{EntityType: "issue", TargetStatus: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, &tt.req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestCompletionRuleService_UpsertThresholdDefaults(t *testing.T) {
	db := newTestDB(t)

	rule := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done"})
	assert.Equal(t, DefaultCompletionThreshold, rule.CompletionThreshold)

	zero := seedRule(t, db, UpsertRuleRequest{EntityType: "action_item", TargetStatus: "Done", CompletionThreshold: intPtr(0)})
	assert.Equal(t, 0, zero.CompletionThreshold)
	assert.True(t, zero.IsActive)
}

func TestCompletionRuleService_UpsertIsIdempotentPerScope(t *testing.T) {
	db := newTestDB(t)

	first := seedRule(t, db, UpsertRuleRequest{
		EntityType: "issue", ProjectID: uintPtr(5), SourceStatus: strPtr("In Progress"),
		TargetStatus: "Review", CompletionThreshold: intPtr(80),
	})
	second := seedRule(t, db, UpsertRuleRequest{
		EntityType: "issue", ProjectID: uintPtr(5), SourceStatus: strPtr("In Progress"),
		TargetStatus: "Done", CompletionThreshold: intPtr(90), NotifyAssignee: true,
	})

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Done", second.TargetStatus)
	assert.Equal(t, 90, second.CompletionThreshold)
	assert.True(t, second.NotifyAssignee)

	var count int64
	require.NoError(t, db.Model(&models.CompletionActionRule{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCompletionRuleService_UpsertGlobalWildcardOnce(t *testing.T) {
	db := newTestDB(t)

	seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Review"})
	seedRule(t, db, UpsertRuleRequest{EntityType: "issue", SourceStatus: strPtr(""), TargetStatus: "Done"})

	rules, err := NewCompletionRuleService(db).List(context.Background(), RuleFilter{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Nil(t, rules[0].ProjectID)
	assert.Nil(t, rules[0].SourceStatus)
	assert.Equal(t, "Done", rules[0].TargetStatus)
}

func TestCompletionRuleService_UpsertReactivates(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompletionRuleService(db)
	ctx := context.Background()

	rule := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done"})
	deactivated, err := svc.Deactivate(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	rules, err := svc.List(ctx, RuleFilter{})
	require.NoError(t, err)
	assert.Empty(t, rules)

	again := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Closed"})
	assert.Equal(t, rule.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, "Closed", again.TargetStatus)
}

func TestCompletionRuleService_DeactivateNotFound(t *testing.T) {
	svc := NewCompletionRuleService(newTestDB(t))
	_, err := svc.Deactivate(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletionRuleService_DeactivateKeepsRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompletionRuleService(db)
	rule := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done"})

	_, err := svc.Deactivate(context.Background(), rule.ID)
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestCompletionRuleService_ListOrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompletionRuleService(db)

	globalWildcard := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", TargetStatus: "Done"})
	globalSpecific := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", SourceStatus: strPtr("In Progress"), TargetStatus: "Done"})
	projectWildcard := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", ProjectID: uintPtr(5), TargetStatus: "Review"})
	projectSpecific := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", ProjectID: uintPtr(5), SourceStatus: strPtr("In Progress"), TargetStatus: "Review"})
	otherProject := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", ProjectID: uintPtr(6), TargetStatus: "Review"})
	actionRule := seedRule(t, db, UpsertRuleRequest{EntityType: "action_item", TargetStatus: "Done"})

	rules, err := svc.List(context.Background(), RuleFilter{ProjectID: uintPtr(5), EntityType: "issue"})
	require.NoError(t, err)

	var ids []uint
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint{projectSpecific.ID, projectWildcard.ID, globalSpecific.ID, globalWildcard.ID}, ids)
	assert.NotContains(t, ids, otherProject.ID)
	assert.NotContains(t, ids, actionRule.ID)

	all, err := svc.List(context.Background(), RuleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = svc.List(context.Background(), RuleFilter{EntityType: "epic"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCompletionRuleService_MatchAndPreview(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompletionRuleService(db)
	ctx := context.Background()

	seedRule(t, db, UpsertRuleRequest{EntityType: "issue", SourceStatus: strPtr("In Progress"), TargetStatus: "Done", CompletionThreshold: intPtr(100)})
	project := seedRule(t, db, UpsertRuleRequest{EntityType: "issue", ProjectID: uintPtr(5), SourceStatus: strPtr("In Progress"), TargetStatus: "Review", CompletionThreshold: intPtr(80)})

	rule, err := svc.Match(ctx, "issue", 5, "In Progress", 85)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, project.ID, rule.ID)

	rule, err = svc.Preview(ctx, &MatchRequest{EntityType: "issue", ProjectID: 7, CurrentStatus: "In Progress", Percentage: 85})
	require.NoError(t, err)
	assert.Nil(t, rule)

	_, err = svc.Preview(ctx, &MatchRequest{EntityType: "issue", Percentage: 120})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
