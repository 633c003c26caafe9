package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/services"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *utils.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *utils.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt creates a new attempt or resumes the user's in-progress one
// @Summary Start or resume a quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Attempt data"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", req.QuizID)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// GetAttempt retrieves an attempt by ID
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// GetAttemptQuestions returns the attempt's question sequence without
// correct-answer markers
// @Summary Get attempt questions
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {array} services.AttemptQuestion
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/questions [get]
func (h *AttemptHandler) GetAttemptQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	questions, err := h.attemptService.GetQuestions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// SubmitAnswer records an answer (or a skip) for one question
// @Summary Submit an answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} services.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answer [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.SubmitAnswer(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// FinishAttempt finalizes an in-progress attempt
// @Summary Finish attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/finish [post]
func (h *AttemptHandler) FinishAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Finishing attempt", "attempt_id", id)

	attempt, err := h.attemptService.Finish(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// AbandonAttempt abandons an in-progress attempt
// @Summary Abandon attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [delete]
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.attemptService.Abandon(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAttemptResult returns the final outcome of a terminal attempt
// @Summary Get attempt result
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResult
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *AttemptHandler) GetAttemptResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAttempts lists the caller's attempts
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := repositories.AttemptFilters{
		UserID: &userID,
		QuizID: h.parseUintQuery(c, "quiz_id"),
		Limit:  h.parseIntQuery(c, "limit", 20),
		Offset: h.parseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filters.Status = parseAttemptStatus(status)
	}

	attempts, total, err := h.attemptService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}
