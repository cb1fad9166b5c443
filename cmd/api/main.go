package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DesumovJP/flowerpos/api/controllers"
	"github.com/DesumovJP/flowerpos/api/routes"
	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/internal/notify"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/internal/shift"
	"github.com/DesumovJP/flowerpos/pkg/config"
	"github.com/DesumovJP/flowerpos/pkg/db"
	"github.com/DesumovJP/flowerpos/pkg/logger"
	"github.com/DesumovJP/flowerpos/pkg/metrics"
	"github.com/DesumovJP/flowerpos/pkg/migrate"
	"github.com/DesumovJP/flowerpos/pkg/redis"
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

	// Redis is preferred but not required: a terminal without it keeps the
	// journal in memory and loses it on restart, which the register tolerates.
	var redisClient *redis.Client
	var journalStore activity.Persistence
	var redisPinger controllers.Pinger
	redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "redis unavailable, journal degrades to memory")
		journalStore = activity.NewMemoryPersistence()
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisPinger = redisClient
		journalStore, err = activity.NewRedisPersistence(redisClient, cfg.App.TerminalID)
		if err != nil {
			logg.Error(context.Background(), "failed to create journal persistence", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	posMetrics := metrics.NewPOSMetrics(registry)
	broadcaster := notify.NewBroadcaster(redisClient, cfg.App.TerminalID, logg)

	journal, err := activity.NewLog(activity.LogParams{
		Persistence: journalStore,
		Notifier:    broadcaster,
		Logger:      logg,
		Metrics:     posMetrics,
		MaxEntries:  cfg.Journal.MaxEntries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create journal", err)
		os.Exit(1)
	}

	itemRepo := inventory.NewRepository(dbClient.DB())
	cache, err := inventory.NewCache(inventory.CacheParams{
		Fetcher:  itemRepo,
		TTL:      cfg.Inventory.CacheTTL,
		Notifier: broadcaster,
		Logger:   logg,
		Metrics:  posMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory cache", err)
		os.Exit(1)
	}

	posService, err := pos.NewService(pos.ServiceParams{
		Journal: journal,
		Cache:   cache,
		Store:   itemRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pos service", err)
		os.Exit(1)
	}

	var locker shift.Locker
	if redisClient != nil {
		locker = redisClient
	}
	shiftRepo := shift.NewRepository(dbClient.DB())
	coordinator, err := shift.NewCoordinator(shift.CoordinatorParams{
		Journal: journal,
		Cache:   cache,
		Store:   shiftRepo,
		Locker:  locker,
		Logger:  logg,
		Metrics: posMetrics,
		LockTTL: cfg.Shift.CloseLockTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shift coordinator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"terminal": cfg.App.TerminalID,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisPinger,
			POSService:      posService,
			ShiftCloser:     coordinator,
			ShiftReader:     shiftRepo,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
