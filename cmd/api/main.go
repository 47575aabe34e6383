package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/meal-marketplace/internal/api/http"
	"github.com/spec-kit/meal-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/cache"
	"github.com/spec-kit/meal-marketplace/internal/config"
	"github.com/spec-kit/meal-marketplace/internal/events"
	"github.com/spec-kit/meal-marketplace/internal/observability"
	"github.com/spec-kit/meal-marketplace/internal/persistence"
	"github.com/spec-kit/meal-marketplace/internal/repository"
	"github.com/spec-kit/meal-marketplace/internal/service"
	"github.com/spec-kit/meal-marketplace/internal/worker"
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
	resetRepo := repository.NewPasswordResetRepository(pool)
	houseRepo := repository.NewHouseRepository(pool)
	planRepo := repository.NewMealPlanRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	planCache := cache.New(redis.Client)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	houseService := service.NewHouseService(houseRepo, dispatcher)
	planService := service.NewMealPlanService(planRepo, houseRepo, planCache, cfg.Redis.PlanCacheTTL(), logger)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orderRepo,
		PlanRepo:   planRepo,
		HouseRepo:  houseRepo,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	guard := auth.NewGuard(authService.TokenManager())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:     handlers.NewUsersHandler(authService),
		Houses:    handlers.NewHousesHandler(houseService),
		MealPlans: handlers.NewMealPlansHandler(planService),
		Orders:    handlers.NewOrdersHandler(orderService),
		Guard:     guard,
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
