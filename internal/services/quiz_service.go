package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== QUIZ OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	quiz := &models.Quiz{
		Title:                req.Title,
		Description:          req.Description,
		QuestionsPerCategory: req.QuestionsPerCategory,
		ExamTotalQuestions:   req.ExamTotalQuestions,
		ExamTimeLimit:        req.ExamTimeLimit,
		ExamAllowedIncorrect: req.ExamAllowedIncorrect,
		RandomOrder:          req.RandomOrder,
		ShowCorrectAnswer:    req.ShowCorrectAnswer,
		AllowSkip:            req.AllowSkip,
		IsActive:             true,
		CreatedBy:            creatorID,
	}
	for _, userID := range req.AssignedUserIDs {
		quiz.AssignedUsers = append(quiz.AssignedUsers, models.User{ID: userID})
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().Create(ctx, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		if len(req.CategoryIDs) > 0 {
			return s.setCategoryOrder(ctx, txRepo, quiz.ID, req.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "title", quiz.Title)
	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	quiz, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.QuestionsPerCategory != nil {
		quiz.QuestionsPerCategory = *req.QuestionsPerCategory
	}
	if req.ExamTotalQuestions != nil {
		quiz.ExamTotalQuestions = *req.ExamTotalQuestions
	}
	if req.ExamTimeLimit != nil {
		quiz.ExamTimeLimit = *req.ExamTimeLimit
	}
	if req.ExamAllowedIncorrect != nil {
		quiz.ExamAllowedIncorrect = *req.ExamAllowedIncorrect
	}
	if req.RandomOrder != nil {
		quiz.RandomOrder = *req.RandomOrder
	}
	if req.ShowCorrectAnswer != nil {
		quiz.ShowCorrectAnswer = *req.ShowCorrectAnswer
	}
	if req.AllowSkip != nil {
		quiz.AllowSkip = *req.AllowSkip
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", quiz.ID)
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.logger.Info("Quiz deleted", "quiz_id", id)
	return nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// SetCategoryOrder replaces the quiz's ordered category links. The slice
// order becomes the category priority for exam sampling.
func (s *quizService) SetCategoryOrder(ctx context.Context, quizID uint, categoryIDs []uint) error {
	if _, err := s.GetByID(ctx, quizID); err != nil {
		return err
	}
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return s.setCategoryOrder(ctx, txRepo, quizID, categoryIDs)
	})
}

func (s *quizService) setCategoryOrder(ctx context.Context, txRepo repositories.Repository, quizID uint, categoryIDs []uint) error {
	orders := make([]models.QuizCategoryOrder, len(categoryIDs))
	for i, categoryID := range categoryIDs {
		if _, err := txRepo.Category().GetByID(ctx, categoryID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to get category: %w", err)
		}
		orders[i] = models.QuizCategoryOrder{
			QuizID:     quizID,
			CategoryID: categoryID,
			Order:      i,
		}
	}
	if err := txRepo.Quiz().SetCategoryOrder(ctx, quizID, orders); err != nil {
		return fmt.Errorf("failed to set category order: %w", err)
	}
	return nil
}

// ===== CATEGORY OPERATIONS =====

func (s *quizService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.QuizCategory, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category := &models.QuizCategory{
		Name:     req.Name,
		Order:    req.Order,
		IsActive: req.IsActive,
	}
	if err := s.repo.Category().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *quizService) ListCategories(ctx context.Context, onlyActive bool) ([]*models.QuizCategory, error) {
	categories, err := s.repo.Category().List(ctx, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ===== QUESTION OPERATIONS =====

func (s *quizService) CreateQuestion(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := s.repo.Category().GetByID(ctx, req.CategoryID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	question := &models.Question{
		CategoryID:   req.CategoryID,
		QuestionText: req.QuestionText,
		ImageURL:     req.ImageURL,
		Explanation:  req.Explanation,
		Order:        req.Order,
		IsActive:     req.IsActive,
		Answers:      make([]models.Answer, len(req.Answers)),
	}
	for i, a := range req.Answers {
		question.Answers[i] = models.Answer{
			AnswerText: a.AnswerText,
			IsCorrect:  a.IsCorrect,
			Order:      a.Order,
		}
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"category_id", question.CategoryID,
		"answers", len(question.Answers))
	return question, nil
}

func (s *quizService) ListQuestions(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, id uint) error {
	if _, err := s.repo.Question().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.Info("Question deleted", "question_id", id)
	return nil
}

// ===== STATS =====

func (s *quizService) GetStats(ctx context.Context, quizID uint) (*repositories.AttemptStats, error) {
	if _, err := s.GetByID(ctx, quizID); err != nil {
		return nil, err
	}
	stats, err := s.repo.Attempt().GetStats(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt stats: %w", err)
	}
	return stats, nil
}
