package handlers

import (
	"strconv"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CompletionRuleHandler struct {
	service *services.CompletionRuleService
}

func NewCompletionRuleHandler(db *gorm.DB) *CompletionRuleHandler {
	return &CompletionRuleHandler{service: services.NewCompletionRuleService(db)}
}

// List returns active rules in match order. With project_id, global rules
// are included alongside the project's own.
func (h *CompletionRuleHandler) List(c *gin.Context) {
	var filter services.RuleFilter
	if pid := c.Query("project_id"); pid != "" {
		id, err := strconv.ParseUint(pid, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid project_id")
			return
		}
		uid := uint(id)
		filter.ProjectID = &uid
	}
	filter.EntityType = c.Query("entity_type")

	rules, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, rules)
}

func (h *CompletionRuleHandler) Upsert(c *gin.Context) {
	var req services.UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.CreatedBy = middleware.GetUserIDPtr(c)

	rule, err := h.service.Upsert(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, rule)
}

func (h *CompletionRuleHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rule, err := h.service.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, rule)
}

// Preview reports which rule would fire for a hypothetical work item.
func (h *CompletionRuleHandler) Preview(c *gin.Context) {
	var req services.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rule, err := h.service.Preview(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"matched": rule != nil,
		"rule":    rule,
	})
}
