package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/middleware"
	"github.com/ot-portal/quiz-service/internal/services"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type TokenHandler struct {
	BaseHandler
	tokenService services.TokenService
	gate         *middleware.ExamGate
	validator    *utils.Validator
}

func NewTokenHandler(
	tokenService services.TokenService,
	gate *middleware.ExamGate,
	validator *utils.Validator,
	logger utils.Logger,
) *TokenHandler {
	return &TokenHandler{
		BaseHandler:  NewBaseHandler(logger),
		tokenService: tokenService,
		gate:         gate,
		validator:    validator,
	}
}

// IssueToken creates a quiz access token for one user
// @Summary Issue access token
// @Tags tokens
// @Accept json
// @Produce json
// @Param token body services.IssueTokenRequest true "Token data"
// @Success 201 {object} models.QuizAccessToken
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tokens [post]
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req services.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	issuerID := h.requireUserID(c)
	if issuerID == "" {
		return
	}

	token, err := h.tokenService.Issue(c.Request.Context(), &req, issuerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

// GetToken retrieves token details by its value
// @Summary Get token
// @Tags tokens
// @Produce json
// @Param token path string true "Token value"
// @Success 200 {object} models.QuizAccessToken
// @Failure 404 {object} ErrorResponse
// @Router /tokens/{token} [get]
func (h *TokenHandler) GetToken(c *gin.Context) {
	tokenValue := c.Param("token")
	if tokenValue == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid token"})
		return
	}

	token, err := h.tokenService.Get(c.Request.Context(), tokenValue)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// EnterToken validates the credential and switches the caller's session into
// token mode, restricting it to the gated exam surface
// @Summary Enter token mode
// @Tags tokens
// @Produce json
// @Param token path string true "Token value"
// @Success 200 {object} models.QuizAccessToken
// @Failure 403 {object} ErrorResponse
// @Router /tokens/{token}/enter [post]
func (h *TokenHandler) EnterToken(c *gin.Context) {
	tokenValue := c.Param("token")
	if tokenValue == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid token"})
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	token, err := h.tokenService.Enter(c.Request.Context(), tokenValue, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.gate != nil {
		if err := h.gate.EnterTokenMode(c, userID, token.QuizID); err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "Failed to enter token mode", err)
			return
		}
	}
	c.JSON(http.StatusOK, token)
}

// LeaveToken clears the caller's token-mode session flag
// @Summary Leave token mode
// @Tags tokens
// @Success 204
// @Router /tokens/leave [post]
func (h *TokenHandler) LeaveToken(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if h.gate != nil {
		if err := h.gate.LeaveTokenMode(c, userID); err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "Failed to leave token mode", err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// RevokeToken deactivates a token
// @Summary Revoke token
// @Tags tokens
// @Param token path string true "Token value"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /tokens/{token} [delete]
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	tokenValue := c.Param("token")
	if tokenValue == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid token"})
		return
	}

	if err := h.tokenService.Revoke(c.Request.Context(), tokenValue); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
