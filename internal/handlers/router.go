package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/middleware"
	"github.com/ot-portal/quiz-service/internal/services"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	tokenHandler   *TokenHandler
	gate           *middleware.ExamGate
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	gate *middleware.ExamGate,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.ImportExport(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		tokenHandler:   NewTokenHandler(serviceManager.Token(), gate, validator, logger),
		gate:           gate,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.gate != nil {
		router.Use(hm.gate.Middleware())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/details", hm.quizHandler.GetQuizWithDetails)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.PUT("/:id/categories/order", hm.quizHandler.SetCategoryOrder)
			quizzes.GET("/:id/stats", hm.quizHandler.GetQuizStats)
		}

		// Category routes
		categories := v1.Group("/categories")
		{
			categories.POST("", hm.quizHandler.CreateCategory)
			categories.GET("", hm.quizHandler.ListCategories)
			categories.POST("/:category_id/questions/import", hm.quizHandler.ImportQuestions)
		}

		// Question routes
		questions := v1.Group("/questions")
		{
			questions.POST("", hm.quizHandler.CreateQuestion)
			questions.GET("", hm.quizHandler.ListQuestions)
			questions.GET("/export", hm.quizHandler.ExportQuestions)
			questions.DELETE("/:id", hm.quizHandler.DeleteQuestion)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/questions", hm.attemptHandler.GetAttemptQuestions)
			attempts.POST("/:id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/finish", hm.attemptHandler.FinishAttempt)
			attempts.DELETE("/:id", hm.attemptHandler.AbandonAttempt)
			attempts.GET("/:id/result", hm.attemptHandler.GetAttemptResult)
		}

		// Token routes
		tokens := v1.Group("/tokens")
		{
			tokens.POST("", hm.tokenHandler.IssueToken)
			tokens.POST("/leave", hm.tokenHandler.LeaveToken)
			tokens.GET("/:token", hm.tokenHandler.GetToken)
			tokens.POST("/:token/enter", hm.tokenHandler.EnterToken)
			tokens.DELETE("/:token", hm.tokenHandler.RevokeToken)
		}
	}
}
