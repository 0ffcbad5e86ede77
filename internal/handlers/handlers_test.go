package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

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

// newTestRouter mounts the handlers the way the server does, with the caller
// already authenticated as an admin.
func newTestRouter(db *gorm.DB) *gin.Engine {
	hub := services.NewSSEHub()
	automation := services.NewAutomationService(db, nil, hub, config.AutomationConfig{Enabled: true})

	rules := NewCompletionRuleHandler(db)
	checklists := NewChecklistHandler(db, automation)
	workItems := NewWorkItemHandler(db)
	health := NewHealthHandler(db, services.NewSyncQueue(), hub)

	r := gin.New()
	r.GET("/api/health", health.CheckHealth)

	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uint(9))
		c.Set(middleware.ContextRole, middleware.RoleAdmin)
		c.Next()
	})
	api.GET("/completion-rules", rules.List)
	api.POST("/completion-rules", rules.Upsert)
	api.POST("/completion-rules/preview", rules.Preview)
	api.DELETE("/completion-rules/:id", rules.Deactivate)
	api.PUT("/checklist-items/:id", checklists.ToggleItem)
	api.GET("/checklists/:id/completion", checklists.GetCompletion)
	api.POST("/checklists/:id/evaluate", checklists.Evaluate)
	api.GET("/work-items/:entity_type/:id/completion", workItems.GetCompletion)
	api.GET("/work-items/:entity_type/:id/status-history", workItems.StatusHistory)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

// seedLinkedChecklist creates an In Progress issue with one checklist of
// total items, done of them completed.
func seedLinkedChecklist(t *testing.T, db *gorm.DB, total, done int) (*models.Issue, *models.Checklist, []models.ChecklistItem) {
	t.Helper()
	issue := &models.Issue{ProjectID: 1, Title: "Ship v2", Status: "In Progress"}
	require.NoError(t, db.Create(issue).Error)

	checklist := &models.Checklist{ProjectID: 1, Title: "Release", RelatedIssueID: &issue.ID, TotalItems: total, CompletedItems: done}
	require.NoError(t, db.Create(checklist).Error)

	items := make([]models.ChecklistItem, total)
	for i := range items {
		items[i] = models.ChecklistItem{ChecklistID: checklist.ID, Title: "step", IsCompleted: i < done}
		require.NoError(t, db.Create(&items[i]).Error)
	}
	return issue, checklist, items
}
