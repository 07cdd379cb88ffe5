package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/images"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
	})
	upvoteService := service.NewUpvoteService(issueRepo, dispatcher)
	paymentService := service.NewPaymentService(cfg.Payment, service.PaymentDependencies{
		Provider:     payments.NewHTTPProvider(cfg.Payment),
		PaymentRepo:  paymentRepo,
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Issues:         handlers.NewIssuesHandler(issueService, upvoteService),
		Triage:         handlers.NewTriageHandler(triageService),
		Users:          handlers.NewUsersHandler(userService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Images:         handlers.NewImagesHandler(images.NewHTTPStore(cfg.Images)),
		AuthMiddleware: authMiddleware,
		Redis:          redis,
		Logger:         logger,
		BurstLimit:     cfg.App.ReportBurstLimit,
		BurstWindow:    cfg.App.ReportBurstWindow(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
