package services

import (
	"context"
	"fmt"
	"math"

	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
)

// ===== ELIGIBILITY CHECKS =====

func (s *attemptService) checkCategory(ctx context.Context, categoryID uint) error {
	category, err := s.repo.Category().GetByID(ctx, categoryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	if !category.IsActive {
		return ErrCategoryInactive
	}
	return nil
}

// checkToken loads the credential and validates ownership plus the gate
// checks in their fixed order.
func (s *attemptService) checkToken(ctx context.Context, tokenValue string, quizID uint, userID string) (*models.QuizAccessToken, error) {
	token, err := s.repo.Token().GetByToken(ctx, tokenValue)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if token.QuizID != quizID || token.UserID != userID {
		return nil, ErrTokenWrongUser
	}
	if err := tokenRejectionError(token.Validate(s.now())); err != nil {
		return nil, err
	}
	return token, nil
}

func tokenRejectionError(rejection models.TokenRejection) error {
	switch rejection {
	case models.TokenOK:
		return nil
	case models.TokenDeactivated:
		return ErrTokenDeactivated
	case models.TokenAlreadyUsed:
		return ErrTokenAlreadyUsed
	case models.TokenNotYetValid:
		return ErrTokenNotYetValid
	case models.TokenExpired:
		return ErrTokenExpired
	default:
		return ErrTokenNotFound
	}
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, userID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptAccessDenied
	}
	return attempt, nil
}

// ===== GRADING =====

// gradeAnswer builds the UserAnswer row for a submission. A question with no
// correct answer configured grades every selection as incorrect.
func (s *attemptService) gradeAnswer(ctx context.Context, txRepo repositories.Repository,
	attempt *models.QuizAttempt, quiz *models.Quiz, req *SubmitAnswerRequest) (*models.UserAnswer, error) {

	userAnswer := &models.UserAnswer{
		AttemptID:  attempt.ID,
		QuestionID: req.QuestionID,
		AnsweredAt: s.now(),
	}

	if req.SelectedAnswerID == nil {
		if !quiz.AllowSkip {
			return nil, ErrSkipNotAllowed
		}
		userAnswer.IsSkipped = true
		return userAnswer, nil
	}

	question, err := txRepo.Question().GetByIDWithAnswers(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	var selected *models.Answer
	for i := range question.Answers {
		if question.Answers[i].ID == *req.SelectedAnswerID {
			selected = &question.Answers[i]
			break
		}
	}
	if selected == nil {
		return nil, ErrAnswerNotFound
	}

	userAnswer.SelectedAnswerID = req.SelectedAnswerID
	userAnswer.IsCorrect = selected.IsCorrect && question.CorrectAnswer() != nil
	return userAnswer, nil
}

// ===== TERMINATION =====

// evaluateTermination runs the post-submission checks in their fixed
// precedence: timeout, incorrect limit, all questions answered. It returns
// true when the attempt was finalized.
func (s *attemptService) evaluateTermination(ctx context.Context, txRepo repositories.Repository,
	attempt *models.QuizAttempt, answered int) (bool, error) {

	switch {
	case attempt.TimeExpired(s.now()):
		return true, s.finalize(ctx, txRepo, attempt, models.AttemptCompleted, models.FailureTimeout)
	case attempt.IncorrectLimitBreached():
		return true, s.finalize(ctx, txRepo, attempt, models.AttemptCompleted, models.FailureIncorrectLimit)
	case answered >= attempt.TotalQuestions:
		return true, s.finalize(ctx, txRepo, attempt, models.AttemptCompleted, models.FailureNone)
	}
	return false, nil
}

// finalize computes the outcome and writes it through the status-guarded
// update. A lost race against another finalizer leaves the winner's result in
// place and reloads it into attempt.
func (s *attemptService) finalize(ctx context.Context, txRepo repositories.Repository,
	attempt *models.QuizAttempt, status models.AttemptStatus, reason models.FailureReason) error {

	score, passed := computeOutcome(attempt, status, reason)

	completedAt := attempt.CompletedAt
	if status == models.AttemptCompleted {
		now := s.now()
		completedAt = &now
	}

	applied, err := txRepo.Attempt().Finalize(ctx, attempt.ID, status, reason, score, passed, completedAt)
	if err != nil {
		return fmt.Errorf("failed to finalize attempt: %w", err)
	}
	if !applied {
		reloaded, err := txRepo.Attempt().GetByID(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to reload attempt: %w", err)
		}
		*attempt = *reloaded
		return nil
	}

	attempt.Status = status
	attempt.FailureReason = reason
	attempt.ScorePercentage = score
	attempt.Passed = passed
	attempt.CompletedAt = completedAt

	s.logger.Info("Attempt finalized",
		"attempt_id", attempt.ID,
		"status", status,
		"failure_reason", reason,
		"score", score,
		"passed", passed)
	return nil
}

// computeOutcome derives the score and pass flag from the counters. An empty
// attempt scores zero rather than dividing by zero. The pass rule depends on
// the mode: an exam passes when it completes without a failure reason, a
// training run passes only when every question was answered correctly.
func computeOutcome(attempt *models.QuizAttempt, status models.AttemptStatus, reason models.FailureReason) (float64, bool) {
	var score float64
	if attempt.TotalQuestions > 0 {
		score = float64(attempt.CorrectAnswers) / float64(attempt.TotalQuestions) * 100
		score = math.Round(score*100) / 100
	}

	passed := status == models.AttemptCompleted && attempt.TotalQuestions > 0
	if attempt.Mode().IsTraining() {
		passed = passed && attempt.CorrectAnswers == attempt.TotalQuestions
	} else {
		passed = passed && reason == models.FailureNone
	}
	return score, passed
}

// ===== RESPONSE BUILDING =====

func (s *attemptService) buildAttemptResponse(attempt *models.QuizAttempt) *AttemptResponse {
	resp := &AttemptResponse{
		QuizAttempt:   attempt,
		AnsweredCount: attempt.AnsweredCount(),
	}
	if attempt.Status == models.AttemptInProgress {
		resp.CanSubmit = !attempt.TimeExpired(s.now())
		if attempt.Limits.TimeLimitSeconds > 0 {
			remaining := attempt.Limits.TimeLimitSeconds - int(s.now().Sub(attempt.StartedAt).Seconds())
			if remaining < 0 {
				remaining = 0
			}
			resp.TimeRemaining = remaining
		}
	}
	return resp
}

func (s *attemptService) attachCorrectAnswer(ctx context.Context, txRepo repositories.Repository,
	questionID uint, resp *SubmitAnswerResponse) {

	question, err := txRepo.Question().GetByIDWithAnswers(ctx, questionID)
	if err != nil {
		s.logger.Warn("Failed to load question for answer reveal",
			"question_id", questionID,
			"error", err)
		return
	}
	if correct := question.CorrectAnswer(); correct != nil {
		resp.CorrectAnswerID = &correct.ID
	}
	resp.Explanation = question.Explanation
}

// ===== EVENTS =====

func (s *attemptService) publishAttemptEvent(ctx context.Context, eventType events.EventType, attempt *models.QuizAttempt) {
	if s.publisher == nil {
		return
	}
	event := events.NewAttemptEvent(eventType, attempt)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event",
			"attempt_id", attempt.ID,
			"event_type", eventType,
			"error", err)
	}
}
