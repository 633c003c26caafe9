package pkg

import (
	"fmt"

	"github.com/ot-portal/quiz-service/internal/config"
	"github.com/ot-portal/quiz-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Driver errors become gorm sentinels, so the repository layer can
		// detect uniqueness violations portably.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.QuizCategory{},
		&models.Quiz{},
		&models.QuizCategoryOrder{},
		&models.Question{},
		&models.Answer{},
		&models.QuizAttempt{},
		&models.UserAnswer{},
		&models.QuizQuestionOrder{},
		&models.QuizAccessToken{},
		&models.AccessDenialEvent{},
	)
}
