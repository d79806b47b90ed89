package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/soportek/helpdesk/internal/api/http"
	"github.com/soportek/helpdesk/internal/api/http/handlers"
	"github.com/soportek/helpdesk/internal/auth"
	"github.com/soportek/helpdesk/internal/cache"
	"github.com/soportek/helpdesk/internal/config"
	"github.com/soportek/helpdesk/internal/events"
	"github.com/soportek/helpdesk/internal/mail"
	"github.com/soportek/helpdesk/internal/observability"
	"github.com/soportek/helpdesk/internal/persistence"
	"github.com/soportek/helpdesk/internal/repository"
	"github.com/soportek/helpdesk/internal/service"
	"github.com/soportek/helpdesk/internal/storage"
	"github.com/soportek/helpdesk/internal/worker"
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

	fileStore, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	holdRepo := repository.NewHoldReasonRepository(pool)
	cancellationRepo := repository.NewCancellationRepository(pool)

	dashboardCache := cache.NewDashboardCache(redis.Client, logger)
	dispatcher := events.NewInMemoryDispatcher()

	mailer := mail.NewMailer(cfg.Mail, logger)
	notifications := worker.NewNotificationWorker(mailer, logger)
	notifications.Register(dispatcher)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     userRepo,
		TokenManager: tokenManager,
		Config:       cfg.Auth,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		AttachmentRepo:   attachmentRepo,
		ReportRepo:       reportRepo,
		HoldReasonRepo:   holdRepo,
		CancellationRepo: cancellationRepo,
		FileStore:        fileStore,
		Dispatcher:       dispatcher,
		DashboardCache:   dashboardCache,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:  userRepo,
		FileStore: fileStore,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:     ticketRepo,
		ReportRepo:     reportRepo,
		DashboardCache: dashboardCache,
	})

	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxUploadBytes) * 2,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(userService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
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
