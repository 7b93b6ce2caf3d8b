package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/adapter/cache"
	"github.com/finview/finview-backend/internal/adapter/events"
	"github.com/finview/finview-backend/internal/adapter/httpapi"
	"github.com/finview/finview-backend/internal/adapter/provider"
	"github.com/finview/finview-backend/internal/adapter/repository/postgres"
	"github.com/finview/finview-backend/internal/config"
	"github.com/finview/finview-backend/internal/domain"
	"github.com/finview/finview-backend/internal/usecase/overview"
	"github.com/finview/finview-backend/internal/usecase/portfolio"
	"github.com/finview/finview-backend/internal/usecase/resolution"
	"github.com/finview/finview-backend/internal/usecase/seeder"
	"github.com/finview/finview-backend/internal/usecase/watchlist"
	"github.com/finview/finview-backend/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(os.Getenv("APP_ENV") != "production")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// 1. Setup Database
	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 2. Setup Cache (Redis with in-memory fallback)
	ctx := context.Background()
	checks := map[string]httpapi.HealthChecker{"postgres": db}

	var priceCache domain.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zlog.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			checks["redis"] = redisCache
			priceCache = redisCache
		}
	}
	if priceCache == nil {
		memCache := cache.NewMemory(time.Minute)
		defer memCache.Close()
		priceCache = memCache
	}

	// 3. Initialize Repositories (Postgres)
	barRepo := postgres.NewBarRepository(db)
	metadataRepo := postgres.NewMetadataRepository(db)
	portfolioRepo := postgres.NewPortfolioRepository(db)
	watchlistRepo := postgres.NewWatchlistRepository(db)

	// 4. Setup Providers
	var router *resolution.Router
	if cfg.MockProviders {
		synthetic := provider.NewSynthetic()
		router = resolution.NewRouter(synthetic, synthetic)
	} else {
		router = resolution.NewRouter(provider.NewYahoo(), provider.NewBinance())
	}

	// 5. Setup Event Publisher (Kafka or noop)
	var publisher domain.PricePublisher = events.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		kafkaPublisher := events.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, zlog)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// 6. Initialize Services (Use Cases)
	resolutionService := resolution.NewService(priceCache, barRepo, metadataRepo, router, publisher, zlog)
	portfolioService := portfolio.NewPortfolioService(portfolioRepo, resolutionService, zlog)
	watchlistService := watchlist.NewWatchlistService(watchlistRepo, metadataRepo, resolutionService, zlog)
	overviewService := overview.NewOverviewService(resolutionService, overview.DefaultSymbols, zlog)

	// Initialize System Seeder and run it
	systemSeeder := seeder.NewSystemSeeder(watchlistRepo)
	if err := systemSeeder.Seed(ctx); err != nil {
		zlog.Fatal("failed to seed system watchlists", zap.Error(err))
	}
	zlog.Info("system watchlists seeded")

	// 7. Background refresh keeps the overview symbols warm
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		overviewService.Refresh(refreshCtx)
	}); err != nil {
		zlog.Fatal("invalid refresh schedule", zap.String("cron", cfg.RefreshCron), zap.Error(err))
	}
	scheduler.Start()

	// 8. Start HTTP Server
	api := httpapi.NewServer(resolutionService, portfolioService, watchlistService, overviewService,
		zlog, cfg.APIToken, checks)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Handler(),
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(srv, scheduler, zlog)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(srv *http.Server, scheduler *cron.Cron, zlog *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	zlog.Info("shutting down", zap.String("signal", sig.String()))

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http shutdown failed", zap.Error(err))
	}
	zlog.Info("http server stopped")
}
