package services

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

type serviceManager struct {
	quiz         QuizService
	attempt      AttemptService
	token        TokenService
	importExport ImportExportService
}

// NewServiceManager wires every service against shared infrastructure. The
// attempt engine gets its own time-seeded randomness source; tests construct
// services directly with a fixed seed instead.
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator,
	publisher events.EventPublisher) ServiceManager {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &serviceManager{
		quiz:         NewQuizService(repo, logger, validator),
		attempt:      NewAttemptService(repo, logger, validator, publisher, rng),
		token:        NewTokenService(repo, logger, validator, publisher),
		importExport: NewImportExportService(repo, logger, validator),
	}
}

func (m *serviceManager) Quiz() QuizService {
	return m.quiz
}

func (m *serviceManager) Attempt() AttemptService {
	return m.attempt
}

func (m *serviceManager) Token() TokenService {
	return m.token
}

func (m *serviceManager) ImportExport() ImportExportService {
	return m.importExport
}
