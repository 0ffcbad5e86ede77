package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB returns a migrated in-memory database private to the test.
// A single connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func seedIssue(t *testing.T, db *gorm.DB, projectID uint, status string, assignee *uint) *models.Issue {
	t.Helper()
	issue := &models.Issue{ProjectID: projectID, Title: "issue", Status: status, AssigneeID: assignee}
	require.NoError(t, db.Create(issue).Error)
	return issue
}

func seedActionItem(t *testing.T, db *gorm.DB, projectID uint, status string) *models.ActionItem {
	t.Helper()
	item := &models.ActionItem{ProjectID: projectID, Title: "action", Status: status}
	require.NoError(t, db.Create(item).Error)
	return item
}

// seedCounters creates a checklist with the given denormalized counters and no item rows.
func seedCounters(t *testing.T, db *gorm.DB, checklist models.Checklist) *models.Checklist {
	t.Helper()
	if checklist.Title == "" {
		checklist.Title = "checklist"
	}
	require.NoError(t, db.Create(&checklist).Error)
	return &checklist
}

// seedItems creates a checklist for the issue with total items, the first done of them completed.
func seedItems(t *testing.T, db *gorm.DB, projectID, issueID uint, total, done int) (*models.Checklist, []models.ChecklistItem) {
	t.Helper()
	checklist := seedCounters(t, db, models.Checklist{
		ProjectID:      projectID,
		RelatedIssueID: &issueID,
		TotalItems:     total,
		CompletedItems: done,
	})

	items := make([]models.ChecklistItem, total)
	for i := range items {
		items[i] = models.ChecklistItem{
			ChecklistID: checklist.ID,
			Title:       "step",
			IsCompleted: i < done,
			SortOrder:   i,
		}
	}
	if total > 0 {
		require.NoError(t, db.Create(&items).Error)
	}
	return checklist, items
}

func seedRule(t *testing.T, db *gorm.DB, req UpsertRuleRequest) *models.CompletionActionRule {
	t.Helper()
	rule, err := NewCompletionRuleService(db).Upsert(context.Background(), &req)
	require.NoError(t, err)
	return rule
}

func issueStatus(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var issue models.Issue
	require.NoError(t, db.Unscoped().First(&issue, id).Error)
	return issue.Status
}

func historyCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StatusHistory{}).Count(&n).Error)
	return n
}

func enabledAutomation() config.AutomationConfig {
	return config.AutomationConfig{Enabled: true, NotifyAssignees: true}
}

// recordingNotifier captures intents instead of queueing them.
type recordingNotifier struct {
	mu      sync.Mutex
	intents []NotificationIntent
	err     error
}

func (n *recordingNotifier) Enqueue(_ context.Context, intent *NotificationIntent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.intents = append(n.intents, *intent)
	return nil
}

func (n *recordingNotifier) Intents() []NotificationIntent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotificationIntent(nil), n.intents...)
}

// failingIssueRepository simulates a storage fault on the status write.
type failingIssueRepository struct {
	IssueRepository
}

func (failingIssueRepository) SetStatus(*gorm.DB, uint, string, string, time.Time) (int64, error) {
	return 0, errors.New("disk I/O error")
}
