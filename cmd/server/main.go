package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/api"
	"github.com/Wilco-OS/meditec-sub000/internal/config"
	"github.com/Wilco-OS/meditec-sub000/internal/core"
	"github.com/Wilco-OS/meditec-sub000/internal/db"
	"github.com/Wilco-OS/meditec-sub000/internal/mail"
	"github.com/Wilco-OS/meditec-sub000/internal/middleware"
	"github.com/Wilco-OS/meditec-sub000/internal/observ"
	"github.com/Wilco-OS/meditec-sub000/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	pool := database.Pool()
	tenantRepo := postgres.NewTenantStore(pool)
	surveyRepo := postgres.NewSurveyStore(pool)
	invitationRepo := postgres.NewInvitationStore(pool)
	responseRepo := postgres.NewResponseStore(pool)
	catalogRepo := postgres.NewCatalogStore(pool)

	outbox := mail.NewOutbox(rdb, logger)
	sender := mail.NewSender(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.PublicBaseURL, logger)
	worker := mail.NewWorker(rdb, sender, logger)
	go worker.Run(ctx)

	surveySvc := core.NewSurveyService(surveyRepo, tenantRepo, logger)
	invitationSvc := core.NewInvitationService(invitationRepo, surveyRepo, tenantRepo, responseRepo, surveySvc.Resolver(), outbox, logger)

	surveyHandler := api.NewSurveyHandler(surveySvc, logger)
	invitationHandler := api.NewInvitationHandler(invitationSvc, logger)
	participationHandler := api.NewParticipationHandler(invitationSvc, logger)
	tenantHandler := api.NewTenantHandler(tenantRepo, logger)
	catalogHandler := api.NewCatalogHandler(catalogRepo, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Participation is public: the invitation code is the credential.
	participation := srv.Group("/v1/participation")
	participation.POST("/:ref/verify", participationHandler.Verify)
	participation.POST("/:ref/responses", participationHandler.Submit)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/surveys", surveyHandler.Create)
	v1.GET("/surveys", surveyHandler.List)
	v1.GET("/surveys/:ref", surveyHandler.Get)
	v1.PATCH("/surveys/:ref", surveyHandler.Update)
	v1.PUT("/surveys/:ref/status", surveyHandler.UpdateStatus)
	v1.DELETE("/surveys/:ref", surveyHandler.Delete)
	v1.GET("/surveys/:ref/blocks", surveyHandler.Blocks)
	v1.GET("/surveys/:ref/invitations", invitationHandler.List)
	v1.POST("/surveys/:ref/invitations", invitationHandler.Create)
	v1.POST("/surveys/:ref/responses", invitationHandler.SubmitEmployee)
	v1.POST("/invitations/:id/resend", invitationHandler.Resend)
	v1.POST("/tenants", tenantHandler.Create)
	v1.GET("/tenants", tenantHandler.List)
	v1.GET("/tenants/:id", tenantHandler.Get)
	v1.GET("/catalog/questions", catalogHandler.List)
	v1.GET("/catalog/questions/:id", catalogHandler.Get)

	logger.Info("starting pulse-survey server",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
