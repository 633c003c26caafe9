package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/utils"
)

func newTestAttemptService(repo *MockRepository, now time.Time) (*attemptService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := &attemptService{
		repo:      repo,
		logger:    testLogger(),
		validator: utils.NewValidator(),
		publisher: publisher,
		rng:       rand.New(rand.NewSource(1)),
		now:       func() time.Time { return now },
	}
	return svc, publisher
}

func activeQuiz() *models.Quiz {
	return &models.Quiz{
		ID:                   1,
		Title:                "Safety Exam",
		QuestionsPerCategory: 5,
		ExamTotalQuestions:   2,
		ExamTimeLimit:        30,
		ExamAllowedIncorrect: 2,
		RandomOrder:          false,
		AllowSkip:            true,
		IsActive:             true,
	}
}

// ===== START =====

func TestAttemptService_Start_SnapshotsLimitsAndPersistsOrdering(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	quiz := activeQuiz()
	mockRepo.quiz.On("GetByIDWithDetails", mock.Anything, uint(1)).Return(quiz, nil)
	mockRepo.attempt.On("GetActiveAttempt", mock.Anything, uint(1), "user-1", (*uint)(nil)).Return(nil, nil)
	mockRepo.quiz.On("GetCategoryLinks", mock.Anything, uint(1)).Return([]*models.QuizCategoryOrder{
		categoryLink(10, 0, "Fire Safety", true),
	}, nil)
	mockRepo.question.On("GetActiveByCategory", mock.Anything, uint(10)).Return(makeQuestions(100, 5), nil)
	mockRepo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.QuizAttempt).ID = 5
		}).Return(nil)
	mockRepo.ordering.On("CreateBatch", mock.Anything, mock.MatchedBy(func(orders []*models.QuizQuestionOrder) bool {
		return len(orders) == 2 && orders[0].Order == 0 && orders[1].Order == 1
	})).Return(nil)

	resp, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1}, "user-1")

	assert.NoError(t, err)
	assert.False(t, resp.Resumed)
	assert.True(t, resp.CanSubmit)
	assert.Equal(t, 2, resp.TotalQuestions)
	assert.Equal(t, 30*60, resp.Limits.TimeLimitSeconds)
	assert.Equal(t, 2, resp.Limits.AllowedIncorrectAnswers)
	assert.Equal(t, 30*60, resp.TimeRemaining)
	assert.Equal(t, now, resp.StartedAt)

	assert.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventAttemptStarted, publisher.GetPublishedEvents()[0].Type)
	mockRepo.AssertExpectations(t)
}

func TestAttemptService_Start_ResumesActiveAttempt(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	existing := &models.QuizAttempt{
		ID:             7,
		QuizID:         1,
		UserID:         "user-1",
		Status:         models.AttemptInProgress,
		TotalQuestions: 10,
		CorrectAnswers: 4,
		StartedAt:      now.Add(-5 * time.Minute),
		Limits:         models.AttemptLimits{TimeLimitSeconds: 1800},
	}

	mockRepo.quiz.On("GetByIDWithDetails", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.attempt.On("GetActiveAttempt", mock.Anything, uint(1), "user-1", (*uint)(nil)).Return(existing, nil)

	resp, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1}, "user-1")

	assert.NoError(t, err)
	assert.True(t, resp.Resumed)
	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, 1800-300, resp.TimeRemaining)

	// A resume creates nothing and publishes nothing.
	mockRepo.attempt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.ordering.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestAttemptService_Start_InactiveQuizRejected(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	quiz := activeQuiz()
	quiz.IsActive = false
	mockRepo.quiz.On("GetByIDWithDetails", mock.Anything, uint(1)).Return(quiz, nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1}, "user-1")
	assert.ErrorIs(t, err, ErrQuizInactive)
}

func TestAttemptService_Start_TokenAttemptCapIsAtomic(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	token := &models.QuizAccessToken{
		ID:              3,
		Token:           "tok-abc",
		QuizID:          1,
		UserID:          "user-1",
		ValidFrom:       now.Add(-time.Hour),
		ValidUntil:      now.Add(time.Hour),
		IsActive:        true,
		AllowResume:     true,
		MaxAttempts:     2,
		CurrentAttempts: 2,
	}

	mockRepo.quiz.On("GetByIDWithDetails", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.token.On("GetByToken", mock.Anything, "tok-abc").Return(token, nil)
	mockRepo.attempt.On("GetActiveAttempt", mock.Anything, uint(1), "user-1", (*uint)(nil)).Return(nil, nil)
	mockRepo.token.On("TryConsumeAttempt", mock.Anything, uint(3)).Return(false, nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1, Token: "tok-abc"}, "user-1")

	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
	assert.True(t, IsState(err))
	mockRepo.attempt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAttemptService_Start_TokenForAnotherUserRejected(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	token := &models.QuizAccessToken{
		ID:         3,
		Token:      "tok-abc",
		QuizID:     1,
		UserID:     "someone-else",
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
		IsActive:   true,
	}

	mockRepo.quiz.On("GetByIDWithDetails", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.token.On("GetByToken", mock.Anything, "tok-abc").Return(token, nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1, Token: "tok-abc"}, "user-1")
	assert.ErrorIs(t, err, ErrTokenWrongUser)
}

// ===== SUBMIT ANSWER =====

func inProgressAttempt(now time.Time) *models.QuizAttempt {
	return &models.QuizAttempt{
		ID:             5,
		QuizID:         1,
		UserID:         "user-1",
		Status:         models.AttemptInProgress,
		TotalQuestions: 10,
		CorrectAnswers: 3,
		IncorrectAnswers: 2,
		FailureReason:  models.FailureNone,
		StartedAt:      now.Add(-10 * time.Minute),
		Limits: models.AttemptLimits{
			TimeLimitSeconds:        3600,
			AllowedIncorrectAnswers: 2,
			MaxQuestions:            10,
		},
	}
}

func questionWithAnswers(id uint) *models.Question {
	return &models.Question{
		ID:           id,
		CategoryID:   10,
		QuestionText: "Which extinguisher class covers electrical fires?",
		IsActive:     true,
		Answers: []models.Answer{
			{ID: 71, QuestionID: id, AnswerText: "Class A", IsCorrect: false, Order: 0},
			{ID: 72, QuestionID: id, AnswerText: "Class C", IsCorrect: true, Order: 1},
		},
	}
}

func TestAttemptService_SubmitAnswer_IncorrectLimitTerminatesAttempt(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	pre := inProgressAttempt(now)
	post := inProgressAttempt(now)
	post.IncorrectAnswers = 3

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(pre, nil).Once()
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.quiz.On("GetByID", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.question.On("GetByIDWithAnswers", mock.Anything, uint(7)).Return(questionWithAnswers(7), nil)
	mockRepo.answer.On("Create", mock.Anything, mock.MatchedBy(func(ua *models.UserAnswer) bool {
		return ua.AttemptID == 5 && ua.QuestionID == 7 && !ua.IsCorrect && !ua.IsSkipped
	})).Return(nil)
	mockRepo.attempt.On("IncrementCounter", mock.Anything, uint(5), "incorrect_answers").Return(nil)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
	mockRepo.answer.On("CountByAttempt", mock.Anything, uint(5)).Return(int64(6), nil)
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptCompleted, models.FailureIncorrectLimit,
		30.0, false, mock.AnythingOfType("*time.Time")).Return(true, nil)

	resp, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(71),
	}, "user-1")

	assert.NoError(t, err)
	assert.False(t, resp.IsCorrect)
	assert.Equal(t, models.AttemptCompleted, resp.Status)
	assert.Equal(t, models.FailureIncorrectLimit, resp.FailureReason)

	assert.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventAttemptCompleted, publisher.GetPublishedEvents()[0].Type)
	mockRepo.AssertExpectations(t)
}

func TestAttemptService_SubmitAnswer_PerfectTrainingRunPasses(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	pre := &models.QuizAttempt{
		ID:             5,
		QuizID:         1,
		UserID:         "user-1",
		CategoryID:     uintPtr(10),
		Status:         models.AttemptInProgress,
		TotalQuestions: 4,
		CorrectAnswers: 3,
		FailureReason:  models.FailureNone,
		StartedAt:      now.Add(-10 * time.Minute),
	}
	post := *pre
	post.CorrectAnswers = 4

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(pre, nil).Once()
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.quiz.On("GetByID", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.question.On("GetByIDWithAnswers", mock.Anything, uint(7)).Return(questionWithAnswers(7), nil)
	mockRepo.answer.On("Create", mock.Anything, mock.MatchedBy(func(ua *models.UserAnswer) bool {
		return ua.IsCorrect
	})).Return(nil)
	mockRepo.attempt.On("IncrementCounter", mock.Anything, uint(5), "correct_answers").Return(nil)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(&post, nil)
	mockRepo.answer.On("CountByAttempt", mock.Anything, uint(5)).Return(int64(4), nil)
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptCompleted, models.FailureNone,
		100.0, true, mock.AnythingOfType("*time.Time")).Return(true, nil)

	resp, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(72),
	}, "user-1")

	assert.NoError(t, err)
	assert.True(t, resp.IsCorrect)
	assert.Equal(t, models.AttemptCompleted, resp.Status)
	assert.Equal(t, models.FailureNone, resp.FailureReason)

	assert.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventAttemptCompleted, publisher.GetPublishedEvents()[0].Type)
	mockRepo.AssertExpectations(t)
}

// Same counters, but one answer was wrong: the run still completes normally
// and is not marked passed.
func TestAttemptService_SubmitAnswer_ImperfectTrainingRunDoesNotPass(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	pre := &models.QuizAttempt{
		ID:             5,
		QuizID:         1,
		UserID:         "user-1",
		CategoryID:     uintPtr(10),
		Status:         models.AttemptInProgress,
		TotalQuestions: 4,
		CorrectAnswers: 3,
		FailureReason:  models.FailureNone,
		StartedAt:      now.Add(-10 * time.Minute),
	}
	post := *pre
	post.IncorrectAnswers = 1

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(pre, nil).Once()
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.quiz.On("GetByID", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.question.On("GetByIDWithAnswers", mock.Anything, uint(7)).Return(questionWithAnswers(7), nil)
	mockRepo.answer.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockRepo.attempt.On("IncrementCounter", mock.Anything, uint(5), "incorrect_answers").Return(nil)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(&post, nil)
	mockRepo.answer.On("CountByAttempt", mock.Anything, uint(5)).Return(int64(4), nil)
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptCompleted, models.FailureNone,
		75.0, false, mock.AnythingOfType("*time.Time")).Return(true, nil)

	resp, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(71),
	}, "user-1")

	assert.NoError(t, err)
	assert.False(t, resp.IsCorrect)
	assert.Equal(t, models.AttemptCompleted, resp.Status)
	mockRepo.AssertExpectations(t)
}

func TestAttemptService_SubmitAnswer_ZeroAllowedIncorrectMeansUnlimited(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	pre := inProgressAttempt(now)
	pre.Limits.AllowedIncorrectAnswers = 0
	pre.IncorrectAnswers = 7
	post := inProgressAttempt(now)
	post.Limits.AllowedIncorrectAnswers = 0
	post.IncorrectAnswers = 8

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(pre, nil).Once()
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.quiz.On("GetByID", mock.Anything, uint(1)).Return(activeQuiz(), nil)
	mockRepo.question.On("GetByIDWithAnswers", mock.Anything, uint(7)).Return(questionWithAnswers(7), nil)
	mockRepo.answer.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockRepo.attempt.On("IncrementCounter", mock.Anything, uint(5), "incorrect_answers").Return(nil)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
	mockRepo.answer.On("CountByAttempt", mock.Anything, uint(5)).Return(int64(9), nil)

	resp, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(71),
	}, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.AttemptInProgress, resp.Status)
	mockRepo.attempt.AssertNotCalled(t, "Finalize",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttemptService_SubmitAnswer_DuplicateRejected(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).
		Return(&models.UserAnswer{AttemptID: 5, QuestionID: 7}, nil)

	_, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(71),
	}, "user-1")

	assert.ErrorIs(t, err, ErrDuplicateAnswer)
	mockRepo.answer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAttemptService_SubmitAnswer_QuestionOutsideAttemptRejected(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(inProgressAttempt(now), nil)
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(99)).Return(false, nil)

	_, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       99,
		SelectedAnswerID: uintPtr(71),
	}, "user-1")

	assert.ErrorIs(t, err, ErrQuestionNotInAttempt)
}

func TestAttemptService_SubmitAnswer_SkipRequiresAllowSkip(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	quiz := activeQuiz()
	quiz.AllowSkip = false

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(inProgressAttempt(now), nil)
	mockRepo.ordering.On("Contains", mock.Anything, uint(5), uint(7)).Return(true, nil)
	mockRepo.answer.On("GetByAttemptAndQuestion", mock.Anything, uint(5), uint(7)).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.quiz.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)

	_, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{QuestionID: 7}, "user-1")
	assert.ErrorIs(t, err, ErrSkipNotAllowed)
}

func TestAttemptService_SubmitAnswer_OtherUserDenied(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(inProgressAttempt(now), nil)

	_, err := svc.SubmitAnswer(context.Background(), 5, &SubmitAnswerRequest{
		QuestionID:       7,
		SelectedAnswerID: uintPtr(71),
	}, "intruder")

	assert.ErrorIs(t, err, ErrAttemptAccessDenied)
}

// ===== FINISH / ABANDON =====

func TestAttemptService_Finish_TimeoutRecorded(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := started.Add(2 * time.Hour)
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	attempt.StartedAt = started

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptCompleted, models.FailureTimeout,
		30.0, false, mock.AnythingOfType("*time.Time")).Return(true, nil)

	resp, err := svc.Finish(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, resp.Status)
	assert.Equal(t, models.FailureTimeout, resp.FailureReason)
	assert.False(t, resp.Passed)
	assert.Len(t, publisher.GetPublishedEvents(), 1)
}

func TestAttemptService_Finish_AlreadyTerminalRejected(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	attempt.Status = models.AttemptCompleted

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)

	_, err := svc.Finish(context.Background(), 5, "user-1")
	assert.ErrorIs(t, err, ErrAttemptNotActive)
	mockRepo.attempt.AssertNotCalled(t, "Finalize",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttemptService_Finish_LostRaceKeepsWinnersResult(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	winner := inProgressAttempt(now)
	winner.Status = models.AttemptCompleted
	winner.ScorePercentage = 30
	completedAt := now.Add(-time.Second)
	winner.CompletedAt = &completedAt

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil).Once()
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptCompleted, models.FailureNone,
		30.0, true, mock.AnythingOfType("*time.Time")).Return(false, nil)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(winner, nil)

	resp, err := svc.Finish(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, resp.Status)
	assert.Equal(t, &completedAt, resp.CompletedAt)
}

func TestAttemptService_Abandon_TerminalIsNoOp(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	attempt.Status = models.AttemptCompleted

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)

	err := svc.Abandon(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Empty(t, publisher.GetPublishedEvents())
	mockRepo.attempt.AssertNotCalled(t, "Finalize",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttemptService_Abandon_LeavesCompletedAtEmpty(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, publisher := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)
	mockRepo.attempt.On("Finalize", mock.Anything, uint(5), models.AttemptAbandoned, models.FailureNone,
		30.0, false, (*time.Time)(nil)).Return(true, nil)

	err := svc.Abandon(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.AttemptAbandoned, attempt.Status)
	assert.Nil(t, attempt.CompletedAt)
	assert.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventAttemptAbandoned, publisher.GetPublishedEvents()[0].Type)
}

// ===== READS =====

func TestAttemptService_GetQuestions_ReplaysPersistedOrder(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)
	mockRepo.ordering.On("GetByAttempt", mock.Anything, uint(5)).Return([]*models.QuizQuestionOrder{
		{AttemptID: 5, QuestionID: 30, Order: 0},
		{AttemptID: 5, QuestionID: 10, Order: 1},
		{AttemptID: 5, QuestionID: 20, Order: 2},
	}, nil)
	mockRepo.question.On("GetByIDs", mock.Anything, []uint{30, 10, 20}).Return([]*models.Question{
		questionWithAnswers(10),
		questionWithAnswers(20),
		questionWithAnswers(30),
	}, nil)
	mockRepo.answer.On("GetByAttempt", mock.Anything, uint(5)).Return([]*models.UserAnswer{
		{AttemptID: 5, QuestionID: 30},
	}, nil)

	questions, err := svc.GetQuestions(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, []uint{30, 10, 20}, []uint{questions[0].QuestionID, questions[1].QuestionID, questions[2].QuestionID})
	assert.True(t, questions[0].Answered)
	assert.False(t, questions[1].Answered)
	// Answer options carry no correctness markers.
	assert.Len(t, questions[0].Answers, 2)
}

func TestAttemptService_GetResult_RequiresTerminalAttempt(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(inProgressAttempt(now), nil)

	_, err := svc.GetResult(context.Background(), 5, "user-1")
	assert.ErrorIs(t, err, ErrAttemptNotFinished)
}

func TestAttemptService_GetResult_ReportsOutcome(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	attempt := inProgressAttempt(now)
	attempt.Status = models.AttemptCompleted
	attempt.CorrectAnswers = 8
	attempt.IncorrectAnswers = 2
	attempt.ScorePercentage = 80
	attempt.Passed = true
	completedAt := now
	attempt.CompletedAt = &completedAt
	attempt.CategoryID = uintPtr(10)

	mockRepo.attempt.On("GetByID", mock.Anything, uint(5)).Return(attempt, nil)

	result, err := svc.GetResult(context.Background(), 5, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "training", result.Mode)
	assert.Equal(t, 80.0, result.ScorePercentage)
	assert.True(t, result.Passed)
}

// ===== OUTCOME COMPUTATION =====

func TestComputeOutcome(t *testing.T) {
	tests := []struct {
		name       string
		attempt    *models.QuizAttempt
		status     models.AttemptStatus
		reason     models.FailureReason
		wantScore  float64
		wantPassed bool
	}{
		{
			name:       "clean completion passes",
			attempt:    &models.QuizAttempt{TotalQuestions: 10, CorrectAnswers: 9},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  90,
			wantPassed: true,
		},
		{
			name:       "timeout never passes",
			attempt:    &models.QuizAttempt{TotalQuestions: 10, CorrectAnswers: 10},
			status:     models.AttemptCompleted,
			reason:     models.FailureTimeout,
			wantScore:  100,
			wantPassed: false,
		},
		{
			name:       "abandoned never passes",
			attempt:    &models.QuizAttempt{TotalQuestions: 10, CorrectAnswers: 10},
			status:     models.AttemptAbandoned,
			reason:     models.FailureNone,
			wantScore:  100,
			wantPassed: false,
		},
		{
			name:       "empty attempt scores zero",
			attempt:    &models.QuizAttempt{TotalQuestions: 0},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  0,
			wantPassed: false,
		},
		{
			name:       "fractional score rounds to two decimals",
			attempt:    &models.QuizAttempt{TotalQuestions: 3, CorrectAnswers: 2},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  66.67,
			wantPassed: true,
		},
		{
			name:       "training passes only when everything is correct",
			attempt:    &models.QuizAttempt{CategoryID: uintPtr(10), TotalQuestions: 4, CorrectAnswers: 4},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  100,
			wantPassed: true,
		},
		{
			name:       "training with one miss does not pass",
			attempt:    &models.QuizAttempt{CategoryID: uintPtr(10), TotalQuestions: 4, CorrectAnswers: 3, IncorrectAnswers: 1},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  75,
			wantPassed: false,
		},
		{
			name:       "training with a skip does not pass",
			attempt:    &models.QuizAttempt{CategoryID: uintPtr(10), TotalQuestions: 4, CorrectAnswers: 3, SkippedQuestions: 1},
			status:     models.AttemptCompleted,
			reason:     models.FailureNone,
			wantScore:  75,
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, passed := computeOutcome(tt.attempt, tt.status, tt.reason)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantPassed, passed)
		})
	}
}

// A question with no correct answer configured grades every selection as
// incorrect.
func TestAttemptService_GradeAnswer_NoCorrectAnswerConfigured(t *testing.T) {
	now := time.Now()
	mockRepo := NewMockRepository()
	svc, _ := newTestAttemptService(mockRepo, now)

	question := questionWithAnswers(7)
	question.Answers[1].IsCorrect = false

	mockRepo.question.On("GetByIDWithAnswers", mock.Anything, uint(7)).Return(question, nil)

	userAnswer, err := svc.gradeAnswer(context.Background(), mockRepo, inProgressAttempt(now), activeQuiz(),
		&SubmitAnswerRequest{QuestionID: 7, SelectedAnswerID: uintPtr(71)})

	assert.NoError(t, err)
	assert.False(t, userAnswer.IsCorrect)
}
