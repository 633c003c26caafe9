package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/ot-portal/quiz-service/internal/cache"
	"github.com/ot-portal/quiz-service/internal/config"
	"github.com/ot-portal/quiz-service/internal/handlers"
	"github.com/ot-portal/quiz-service/internal/middleware"
	"github.com/ot-portal/quiz-service/internal/repositories/postgres"
	"github.com/ot-portal/quiz-service/internal/services"
	"github.com/ot-portal/quiz-service/internal/utils"
	"github.com/ot-portal/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger utils.Logger
	if cfg.IsDevelopment() {
		logger = utils.NewDevelopmentLogger()
	} else {
		logger = utils.NewDefaultLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	cacheService := cache.NewRedisCache(redisClient, slogger)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	validator := utils.NewValidator()
	serviceManager := services.NewServiceManager(repo, slogger, validator, publisher)

	gate := middleware.NewExamGate(cacheService, repo, logger, publisher, cfg.ExamHost)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(serviceManager, gate, validator, logger)
	handlerManager.SetupRoutes(router)

	logger.Info("Starting quiz service",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"exam_host", cfg.ExamHost)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
