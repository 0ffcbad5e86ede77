package handlers

import (
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChecklistHandler struct {
	checklists *services.ChecklistService
	calculator *services.CompletionCalculator
	automation *services.AutomationService
}

func NewChecklistHandler(db *gorm.DB, automation *services.AutomationService) *ChecklistHandler {
	return &ChecklistHandler{
		checklists: services.NewChecklistService(db, automation),
		calculator: services.NewCompletionCalculator(db),
		automation: automation,
	}
}

type toggleItemRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// ToggleItem checks or unchecks one item. The response carries the automation
// outcome when the toggle moved the linked work item.
func (h *ChecklistHandler) ToggleItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req toggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.checklists.ToggleItem(c.Request.Context(), id, *req.IsCompleted, middleware.GetUserIDPtr(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// GetCompletion counts the checklist's item rows rather than trusting its
// stored counters.
func (h *ChecklistHandler) GetCompletion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.checklists.GetChecklist(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.calculator.ComputeChecklist(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"checklist_id": id,
		"completion":   summary,
	})
}

// Evaluate re-runs automation for the checklist's work item without a toggle.
func (h *ChecklistHandler) Evaluate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.checklists.GetChecklist(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	result := h.automation.OnChecklistChanged(c.Request.Context(), id)
	response.Success(c, gin.H{
		"transitioned": result != nil,
		"automation":   result,
	})
}
