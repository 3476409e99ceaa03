package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/storage"
	"github.com/spec-kit/support-desk/internal/uploads"
	"github.com/spec-kit/support-desk/internal/worker"
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
	customerRepo := repository.NewCustomerRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	objectRepo := repository.NewStoredObjectRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	blobStore, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}
	sessionStore := uploads.NewRedisSessionStore(redis.Client, cfg.Storage.SessionTTL())

	dispatcher := events.NewInMemoryDispatcher()
	var kafkaBridge *events.KafkaBridge
	if cfg.Kafka.Enabled() {
		kafkaBridge = events.NewKafkaBridge(cfg.Kafka, logger)
		kafkaBridge.Register(dispatcher)
		defer kafkaBridge.Close() //nolint:errcheck
		logger.Info("kafka event bridge enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	conversationService := service.NewConversationService(service.ConversationDependencies{
		TicketRepo:       ticketRepo,
		MessageRepo:      messageRepo,
		StoredObjectRepo: objectRepo,
		HistoryRepo:      historyRepo,
		Sessions:         sessionStore,
		Dispatcher:       dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CustomerRepo: customerRepo,
		AccountRepo:  accountRepo,
		Conversation: conversationService,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		StaffRepo:   staffRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	uploadService := service.NewUploadService(service.UploadDependencies{
		StoredObjectRepo: objectRepo,
		Store:            blobStore,
		Sessions:         sessionStore,
		SessionTTL:       cfg.Storage.SessionTTL(),
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:       accountRepo,
		CustomerRepo:      customerRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo, staffRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Storage.MaxUploadSizeBytes) * 8,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(authService),
		StaffAuth:      handlers.NewStaffAuthHandler(authService),
		PortalTickets:  handlers.NewPortalTicketsHandler(ticketService, conversationService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, conversationService, assignmentService),
		Uploads:        handlers.NewUploadsHandler(uploadService, blobStore, cfg.Storage.MaxUploadSizeBytes),
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
