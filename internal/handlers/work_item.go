package handlers

import (
	"strconv"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WorkItemHandler struct {
	db         *gorm.DB
	repos      services.WorkItemRepositories
	calculator *services.CompletionCalculator
	history    *services.StatusHistoryService
}

func NewWorkItemHandler(db *gorm.DB) *WorkItemHandler {
	return &WorkItemHandler{
		db:         db,
		repos:      services.DefaultWorkItemRepositories(),
		calculator: services.NewCompletionCalculator(db),
		history:    services.NewStatusHistoryService(db),
	}
}

func (h *WorkItemHandler) loadItem(c *gin.Context) (*services.WorkItem, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	repo, err := h.repos.For(c.Param("entity_type"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	item, err := repo.Get(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return item, true
}

// GetCompletion returns the aggregate over the item's linked, non-standalone checklists.
func (h *WorkItemHandler) GetCompletion(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}

	summary, err := h.calculator.ComputeAggregate(c.Request.Context(), item.EntityType, item.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"work_item":  item,
		"completion": summary,
	})
}

func (h *WorkItemHandler) StatusHistory(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rows, total, err := h.history.List(c.Request.Context(), item.EntityType, item.ID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Page(c, total, page, pageSize, rows)
}
