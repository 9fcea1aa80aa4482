package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/bookhavenhq/bookhaven-backend/api/routes"
	addresssvc "github.com/bookhavenhq/bookhaven-backend/internal/address"
	authsvc "github.com/bookhavenhq/bookhaven-backend/internal/auth"
	catalogsvc "github.com/bookhavenhq/bookhaven-backend/internal/catalog"
	circulationsvc "github.com/bookhavenhq/bookhaven-backend/internal/circulation"
	"github.com/bookhavenhq/bookhaven-backend/internal/notifications"
	reservationsvc "github.com/bookhavenhq/bookhaven-backend/internal/reservations"
	shelvingsvc "github.com/bookhavenhq/bookhaven-backend/internal/shelving"
	"github.com/bookhavenhq/bookhaven-backend/internal/users"
	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
	"github.com/bookhavenhq/bookhaven-backend/pkg/migrate"
	"github.com/bookhavenhq/bookhaven-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	services, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gdb := dbClient.DB()

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       users.NewRepository(gdb),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	catalogService, err := catalogsvc.NewService(catalogsvc.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}

	allocator, err := shelvingsvc.NewAllocator(cfg.Shelving)
	if err != nil {
		return routes.Services{}, err
	}
	shelvingService, err := shelvingsvc.NewService(shelvingsvc.NewRepository(gdb), allocator)
	if err != nil {
		return routes.Services{}, err
	}

	notifier, err := notifications.NewLogNotifier(logg)
	if err != nil {
		return routes.Services{}, err
	}
	reservationService, err := reservationsvc.NewService(reservationsvc.NewRepository(gdb), notifier, cfg.Reservations, logg)
	if err != nil {
		return routes.Services{}, err
	}

	engine, err := circulationsvc.NewEngine(cfg.Circulation)
	if err != nil {
		return routes.Services{}, err
	}
	circulationService, err := circulationsvc.NewService(circulationsvc.NewRepository(gdb), engine, reservationService, logg)
	if err != nil {
		return routes.Services{}, err
	}

	addressService, err := addresssvc.NewService(addresssvc.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:         authService,
		Catalog:      catalogService,
		Shelving:     shelvingService,
		Circulation:  circulationService,
		Reservations: reservationService,
		Address:      addressService,
	}, nil
}
