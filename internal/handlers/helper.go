package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/models"
)

// parseAttemptStatus normalizes a status query value; unknown values come
// back empty and filter nothing.
func parseAttemptStatus(value string) models.AttemptStatus {
	switch models.AttemptStatus(strings.ToLower(value)) {
	case models.AttemptInProgress:
		return models.AttemptInProgress
	case models.AttemptCompleted:
		return models.AttemptCompleted
	case models.AttemptAbandoned:
		return models.AttemptAbandoned
	default:
		return ""
	}
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) parseUintQuery(c *gin.Context, param string) *uint {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		return nil
	}
	result := uint(value)
	return &result
}

func (h *BaseHandler) parseBoolQuery(c *gin.Context, param string, defaultValue bool) bool {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// requireUserID pulls the authenticated user from the request context set by
// the auth middleware. An empty result has already written the 401 response.
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	id, ok := userID.(string)
	if !ok || strings.TrimSpace(id) == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return id
}
