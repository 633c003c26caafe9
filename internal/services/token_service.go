package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type tokenService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewTokenService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator,
	publisher events.EventPublisher) TokenService {
	return &tokenService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       time.Now,
		publisher: publisher,
	}
}

func (s *tokenService) Issue(ctx context.Context, req *IssueTokenRequest, issuerID string) (*models.QuizAccessToken, error) {
	s.logger.Info("Issuing quiz access token",
		"quiz_id", req.QuizID,
		"user_id", req.UserID,
		"issuer_id", issuerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, NewValidationError("valid_until", "must be after valid_from", req.ValidUntil)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}

	token := &models.QuizAccessToken{
		Token:        generateTokenValue(),
		QuizID:       req.QuizID,
		UserID:       req.UserID,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		RequireLogin: req.RequireLogin,
		AllowResume:  req.AllowResume,
		MaxAttempts:  req.MaxAttempts,
		IsActive:     true,
		CreatedBy:    issuerID,
	}
	if token.ValidFrom.IsZero() {
		token.ValidFrom = s.now()
	}

	if err := s.repo.Token().Create(ctx, token); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrTokenExists
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	s.logger.Info("Quiz access token issued",
		"token_id", token.ID,
		"quiz_id", token.QuizID,
		"user_id", token.UserID,
		"valid_until", token.ValidUntil)

	s.publishTokenEvent(ctx, events.EventTokenIssued, token)
	return token, nil
}

func (s *tokenService) Get(ctx context.Context, tokenValue string) (*models.QuizAccessToken, error) {
	token, err := s.repo.Token().GetByToken(ctx, tokenValue)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// Enter validates the credential for userID and marks it used on first
// successful entry. Marking is conditional on is_used so concurrent entries
// settle on a single first use.
func (s *tokenService) Enter(ctx context.Context, tokenValue string, userID string) (*models.QuizAccessToken, error) {
	token, err := s.Get(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if token.RequireLogin && token.UserID != userID {
		return nil, ErrTokenWrongUser
	}
	if err := tokenRejectionError(token.Validate(s.now())); err != nil {
		s.logger.Warn("Token entry rejected",
			"token_id", token.ID,
			"user_id", userID,
			"reason", err)
		return nil, err
	}

	if !token.IsUsed {
		if err := s.repo.Token().MarkUsed(ctx, token.ID); err != nil {
			return nil, fmt.Errorf("failed to mark token used: %w", err)
		}
		token.IsUsed = true
		usedAt := s.now()
		token.UsedAt = &usedAt
	}

	s.logger.Info("Token entry accepted", "token_id", token.ID, "user_id", userID)
	return token, nil
}

func (s *tokenService) Revoke(ctx context.Context, tokenValue string) error {
	token, err := s.Get(ctx, tokenValue)
	if err != nil {
		return err
	}
	if err := s.repo.Token().Deactivate(ctx, token.ID); err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}
	token.IsActive = false

	s.logger.Info("Quiz access token revoked", "token_id", token.ID, "quiz_id", token.QuizID)
	s.publishTokenEvent(ctx, events.EventTokenRevoked, token)
	return nil
}

func (s *tokenService) publishTokenEvent(ctx context.Context, eventType events.EventType, token *models.QuizAccessToken) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, events.NewTokenEvent(eventType, token)); err != nil {
		s.logger.Error("Failed to publish token event",
			"token_id", token.ID,
			"event_type", eventType,
			"error", err)
	}
}

// generateTokenValue produces an opaque credential string. UUIDs give enough
// entropy and stay URL safe.
func generateTokenValue() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
