package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/services"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService         services.QuizService
	importExportService services.ImportExportService
	validator           *utils.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	importExportService services.ImportExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:         NewBaseHandler(logger),
		quizService:         quizService,
		importExportService: importExportService,
		validator:           validator,
	}
}

// ===== QUIZ CRUD =====

// CreateQuiz creates a new quiz
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
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

	quiz, err := h.quizService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz retrieves a quiz by ID
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// GetQuizWithDetails retrieves a quiz with its ordered categories and
// assigned users
// @Summary Get quiz with details
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/details [get]
func (h *QuizHandler) GetQuizWithDetails(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	quiz, err := h.quizService.GetByIDWithDetails(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz updates quiz configuration
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param quiz body services.UpdateQuizRequest true "Quiz data"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz deletes a quiz
// @Summary Delete quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuizzes lists quizzes
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	filters := repositories.QuizFilters{
		Limit:     h.parseIntQuery(c, "limit", 20),
		Offset:    h.parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if c.Query("is_active") != "" {
		active := h.parseBoolQuery(c, "is_active", true)
		filters.IsActive = &active
	}

	quizzes, total, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quizzes": quizzes,
		"total":   total,
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

// SetCategoryOrder replaces the quiz's ordered category links
// @Summary Set quiz category order
// @Tags quizzes
// @Accept json
// @Param id path uint true "Quiz ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/categories/order [put]
func (h *QuizHandler) SetCategoryOrder(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		CategoryIDs []uint `json:"category_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.quizService.SetCategoryOrder(c.Request.Context(), id, req.CategoryIDs); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetQuizStats returns aggregate attempt statistics for a quiz
// @Summary Get quiz statistics
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} repositories.AttemptStats
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/stats [get]
func (h *QuizHandler) GetQuizStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.quizService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ===== CATEGORIES =====

// CreateCategory creates a question category
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body services.CreateCategoryRequest true "Category data"
// @Success 201 {object} models.QuizCategory
// @Failure 400 {object} ErrorResponse
// @Router /categories [post]
func (h *QuizHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	category, err := h.quizService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListCategories lists question categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.QuizCategory
// @Router /categories [get]
func (h *QuizHandler) ListCategories(c *gin.Context) {
	onlyActive := h.parseBoolQuery(c, "only_active", false)

	categories, err := h.quizService.ListCategories(c.Request.Context(), onlyActive)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ===== QUESTIONS =====

// CreateQuestion creates a question with its answer options
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.quizService.CreateQuestion(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// ListQuestions lists questions
// @Summary List questions
// @Tags questions
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /questions [get]
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	filters := repositories.QuestionFilters{
		CategoryID: h.parseUintQuery(c, "category_id"),
		Limit:      h.parseIntQuery(c, "limit", 20),
		Offset:     h.parseIntQuery(c, "offset", 0),
	}
	if c.Query("is_active") != "" {
		active := h.parseBoolQuery(c, "is_active", true)
		filters.IsActive = &active
	}

	questions, total, err := h.quizService.ListQuestions(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"total":     total,
		"limit":     filters.Limit,
		"offset":    filters.Offset,
	})
}

// DeleteQuestion deletes a question
// @Summary Delete question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== IMPORT / EXPORT =====

// ImportQuestions imports questions for a category from a spreadsheet upload
// @Summary Import questions
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param category_id path uint true "Category ID"
// @Param file formData file true "Spreadsheet file"
// @Success 200 {object} models.ImportSummary
// @Failure 400 {object} ErrorResponse
// @Router /categories/{category_id}/questions/import [post]
func (h *QuizHandler) ImportQuestions(c *gin.Context) {
	categoryID := h.parseIDParam(c, "category_id")
	if categoryID == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing upload file",
			Details: err.Error(),
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open upload", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions",
		"category_id", categoryID,
		"filename", fileHeader.Filename)

	summary, err := h.importExportService.ImportQuestions(c.Request.Context(), file, categoryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportQuestions exports questions to a spreadsheet download
// @Summary Export questions
// @Tags questions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /questions/export [get]
func (h *QuizHandler) ExportQuestions(c *gin.Context) {
	req := &models.ExportRequest{
		IncludeAnswers: h.parseBoolQuery(c, "include_answers", false),
		OnlyActive:     h.parseBoolQuery(c, "only_active", true),
	}
	if categoryID := h.parseUintQuery(c, "category_id"); categoryID != nil {
		req.CategoryIDs = []uint{*categoryID}
	}

	data, err := h.importExportService.ExportQuestions(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("questions-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
