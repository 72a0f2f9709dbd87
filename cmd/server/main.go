package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/cache"
	"retailops/backend/internal/config"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/httpapi"
	"retailops/backend/internal/lock"
	"retailops/backend/internal/service"
	"retailops/backend/internal/store"
	"retailops/backend/internal/store/memory"
	pgstore "retailops/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatalf("postgres migration failed: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.WithField("module", "main").Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.WithField("module", "main").Info("repository: in-memory")
	}

	payrollCache, locker := sharedState(ctx, cfg, logger, &closers)

	svc := service.New(
		repo,
		finance.NewWageCalculator(cfg.PayAmountScale),
		locker,
		payrollCache,
		time.Duration(cfg.PayrollCacheTTLSeconds)*time.Second,
		logger,
	)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("module", "main").Infof("back office listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		config.LogError(logger, "main", "main", "shutdown", nil, err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			config.LogError(logger, "main", "main", "close", nil, err)
		}
	}

	logger.WithField("module", "main").Info("server stopped")
}

// sharedState picks the payroll cache and the write locker. Redis backs both
// when reachable so several instances agree; otherwise they stay in-process.
func sharedState(ctx context.Context, cfg config.Config, logger *logrus.Logger, closers *[]func() error) (cache.PayrollCache, lock.Locker) {
	log := logger.WithField("module", "main")
	if cfg.RedisAddr == "" {
		if cfg.DatabaseURL != "" {
			log.Warn("REDIS_ADDR not set; write locks only cover this process")
		}
		log.Info("cache: memory, locks: local")
		return cache.NewMemoryPayrollCache(), lock.NewLocal()
	}

	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	redisCache := cache.NewRedisPayrollCache(client)
	if err := redisCache.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, using memory cache and local locks")
		_ = client.Close()
		return cache.NewMemoryPayrollCache(), lock.NewLocal()
	}

	*closers = append(*closers, client.Close)
	log.Info("cache: redis, locks: redis")
	return redisCache, lock.NewRedis(client, time.Duration(cfg.LockTTLSeconds)*time.Second, logger)
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.PayAmountScale < 1 {
		return fmt.Errorf("PAY_AMOUNT_SCALE must be a positive integer")
	}
	return nil
}
