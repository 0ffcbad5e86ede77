package handlers

import (
	"errors"
	"strconv"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/response"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the response envelope. Storage
// details are logged, not returned.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		response.Error(c, response.NewBadRequest(err.Error()))
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, response.NewNotFound(err.Error()))
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
		response.Error(c, response.NewServerError("internal server error"))
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
