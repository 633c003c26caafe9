package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	rng       *rand.Rand
	now       func() time.Time
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator,
	publisher events.EventPublisher, rng *rand.Rand) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		rng:       rng,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error) {
	s.logger.Info("Starting quiz attempt",
		"quiz_id", req.QuizID,
		"user_id", userID,
		"category_id", req.CategoryID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}
	if !quiz.IsAssignedTo(userID) {
		return nil, ErrQuizNotAssigned
	}

	mode := models.ExamMode()
	if req.CategoryID != nil {
		mode = models.TrainingMode(*req.CategoryID)
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	var token *models.QuizAccessToken
	if req.Token != "" {
		token, err = s.checkToken(ctx, req.Token, quiz.ID, userID)
		if err != nil {
			return nil, err
		}
	}

	// Resuming an in-progress attempt replays its persisted ordering and
	// does not consume a token attempt.
	existing, err := s.repo.Attempt().GetActiveAttempt(ctx, quiz.ID, userID, mode.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if existing != nil {
		s.logger.Info("Resuming existing attempt", "attempt_id", existing.ID)
		resp := s.buildAttemptResponse(existing)
		resp.Resumed = true
		return resp, nil
	}

	var attempt *models.QuizAttempt
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if token != nil {
			// The conditional increment is the serialization point for the
			// per-token attempt cap.
			ok, err := txRepo.Token().TryConsumeAttempt(ctx, token.ID)
			if err != nil {
				return fmt.Errorf("failed to consume token attempt: %w", err)
			}
			if !ok {
				return NewStateError("token", token.ID, "exhausted", ErrAttemptLimitExceeded)
			}
		}

		selector := NewQuestionSelector(txRepo, s.rng)
		var questionIDs []uint
		var selErr error
		if mode.IsTraining() {
			questionIDs, selErr = selector.SelectForTraining(ctx, quiz, *mode.CategoryID)
		} else {
			questionIDs, selErr = selector.SelectForExam(ctx, quiz)
		}
		if selErr != nil {
			return selErr
		}

		attempt = &models.QuizAttempt{
			QuizID:         quiz.ID,
			UserID:         userID,
			CategoryID:     mode.CategoryID,
			Status:         models.AttemptInProgress,
			TotalQuestions: len(questionIDs),
			FailureReason:  models.FailureNone,
			Limits:         quiz.Limits(),
			StartedAt:      s.now(),
		}
		if err := txRepo.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}

		orders := make([]*models.QuizQuestionOrder, len(questionIDs))
		for i, questionID := range questionIDs {
			orders[i] = &models.QuizQuestionOrder{
				AttemptID:  attempt.ID,
				QuestionID: questionID,
				Order:      i,
			}
		}
		if err := txRepo.Ordering().CreateBatch(ctx, orders); err != nil {
			return fmt.Errorf("failed to persist question ordering: %w", err)
		}

		if token != nil {
			if err := txRepo.Token().MarkUsed(ctx, token.ID); err != nil {
				return fmt.Errorf("failed to mark token used: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"user_id", userID,
		"total_questions", attempt.TotalQuestions)

	s.publishAttemptEvent(ctx, events.EventAttemptStarted, attempt)

	return s.buildAttemptResponse(attempt), nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var resp *SubmitAnswerResponse
	var finalized *models.QuizAttempt

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		attempt, err := txRepo.Attempt().GetByID(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.UserID != userID {
			return ErrAttemptAccessDenied
		}
		if attempt.Status != models.AttemptInProgress {
			return NewStateError("attempt", attempt.ID, string(attempt.Status), ErrAttemptNotActive)
		}

		inAttempt, err := txRepo.Ordering().Contains(ctx, attempt.ID, req.QuestionID)
		if err != nil {
			return fmt.Errorf("failed to check question ordering: %w", err)
		}
		if !inAttempt {
			return ErrQuestionNotInAttempt
		}

		// At-most-once: the read catches the common case, the uniqueness
		// constraint on (attempt, question) catches the race.
		if _, err := txRepo.Answer().GetByAttemptAndQuestion(ctx, attempt.ID, req.QuestionID); err == nil {
			return ErrDuplicateAnswer
		} else if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check existing answer: %w", err)
		}

		quiz, err := txRepo.Quiz().GetByID(ctx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz: %w", err)
		}

		userAnswer, err := s.gradeAnswer(ctx, txRepo, attempt, quiz, req)
		if err != nil {
			return err
		}

		if err := txRepo.Answer().Create(ctx, userAnswer); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateAnswer
			}
			return fmt.Errorf("failed to record answer: %w", err)
		}

		counter := "incorrect_answers"
		switch {
		case userAnswer.IsSkipped:
			counter = "skipped_questions"
		case userAnswer.IsCorrect:
			counter = "correct_answers"
		}
		if err := txRepo.Attempt().IncrementCounter(ctx, attempt.ID, counter); err != nil {
			return fmt.Errorf("failed to update counters: %w", err)
		}

		// Re-read so termination checks see this submission's counters.
		attempt, err = txRepo.Attempt().GetByID(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to reload attempt: %w", err)
		}

		answered, err := txRepo.Answer().CountByAttempt(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to count answers: %w", err)
		}

		done, err := s.evaluateTermination(ctx, txRepo, attempt, int(answered))
		if err != nil {
			return err
		}
		if done {
			finalized = attempt
		}

		resp = &SubmitAnswerResponse{
			IsCorrect:      userAnswer.IsCorrect,
			IsSkipped:      userAnswer.IsSkipped,
			Status:         attempt.Status,
			FailureReason:  attempt.FailureReason,
			AnsweredCount:  int(answered),
			TotalQuestions: attempt.TotalQuestions,
		}
		if quiz.ShowCorrectAnswer {
			s.attachCorrectAnswer(ctx, txRepo, req.QuestionID, resp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finalized != nil {
		s.publishAttemptEvent(ctx, events.EventAttemptCompleted, finalized)
	}
	return resp, nil
}

func (s *attemptService) Finish(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error) {
	s.logger.Info("Finishing quiz attempt", "attempt_id", attemptID, "user_id", userID)

	var attempt *models.QuizAttempt
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		attempt, err = txRepo.Attempt().GetByID(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.UserID != userID {
			return ErrAttemptAccessDenied
		}
		if attempt.Status != models.AttemptInProgress {
			return NewStateError("attempt", attempt.ID, string(attempt.Status), ErrAttemptNotActive)
		}

		reason := models.FailureNone
		if attempt.TimeExpired(s.now()) {
			reason = models.FailureTimeout
		}
		return s.finalize(ctx, txRepo, attempt, models.AttemptCompleted, reason)
	})
	if err != nil {
		return nil, err
	}

	s.publishAttemptEvent(ctx, events.EventAttemptCompleted, attempt)
	return s.buildAttemptResponse(attempt), nil
}

func (s *attemptService) Abandon(ctx context.Context, attemptID uint, userID string) error {
	s.logger.Info("Abandoning quiz attempt", "attempt_id", attemptID, "user_id", userID)

	var attempt *models.QuizAttempt
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		attempt, err = txRepo.Attempt().GetByID(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.UserID != userID {
			return ErrAttemptAccessDenied
		}
		if attempt.Status != models.AttemptInProgress {
			// Abandoning a terminal attempt is a no-op.
			return nil
		}
		return s.finalize(ctx, txRepo, attempt, models.AttemptAbandoned, attempt.FailureReason)
	})
	if err != nil {
		return err
	}

	if attempt.Status == models.AttemptAbandoned {
		s.publishAttemptEvent(ctx, events.EventAttemptAbandoned, attempt)
	}
	return nil
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildAttemptResponse(attempt), nil
}

func (s *attemptService) GetQuestions(ctx context.Context, attemptID uint, userID string) ([]AttemptQuestion, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	ordering, err := s.repo.Ordering().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question ordering: %w", err)
	}

	ids := make([]uint, len(ordering))
	for i, row := range ordering {
		ids[i] = row.QuestionID
	}
	questions, err := s.repo.Question().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers, err := s.repo.Answer().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	answered := make(map[uint]bool, len(answers))
	for _, ua := range answers {
		answered[ua.QuestionID] = true
	}

	result := make([]AttemptQuestion, 0, len(ordering))
	for _, row := range ordering {
		question, ok := byID[row.QuestionID]
		if !ok {
			continue
		}
		aq := AttemptQuestion{
			Order:        row.Order,
			QuestionID:   question.ID,
			QuestionText: question.QuestionText,
			ImageURL:     question.ImageURL,
			Answered:     answered[question.ID],
			Answers:      make([]AttemptAnswer, len(question.Answers)),
		}
		for i, a := range question.Answers {
			// Correctness flags never leave the service.
			aq.Answers[i] = AttemptAnswer{ID: a.ID, AnswerText: a.AnswerText}
		}
		result = append(result, aq)
	}
	return result, nil
}

func (s *attemptService) GetResult(ctx context.Context, attemptID uint, userID string) (*AttemptResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if !attempt.Status.IsTerminal() {
		return nil, NewStateError("attempt", attempt.ID, string(attempt.Status), ErrAttemptNotFinished)
	}

	mode := "exam"
	if attempt.Mode().IsTraining() {
		mode = "training"
	}
	return &AttemptResult{
		AttemptID:        attempt.ID,
		QuizID:           attempt.QuizID,
		Mode:             mode,
		Status:           attempt.Status,
		FailureReason:    attempt.FailureReason,
		TotalQuestions:   attempt.TotalQuestions,
		CorrectAnswers:   attempt.CorrectAnswers,
		IncorrectAnswers: attempt.IncorrectAnswers,
		SkippedQuestions: attempt.SkippedQuestions,
		ScorePercentage:  attempt.ScorePercentage,
		Passed:           attempt.Passed,
		StartedAt:        attempt.StartedAt,
		CompletedAt:      attempt.CompletedAt,
	}, nil
}

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}
