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

	"github.com/diagnosis/marketinn/internal/http/handlers"
	"github.com/diagnosis/marketinn/internal/http/middleware"
	"github.com/diagnosis/marketinn/internal/platform/redisstore"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/internal/repo/memory"
	"github.com/diagnosis/marketinn/internal/repo/postgres"
	"github.com/diagnosis/marketinn/internal/service"
	"github.com/diagnosis/marketinn/pkg/auth"
	"github.com/diagnosis/marketinn/pkg/config"
	"github.com/diagnosis/marketinn/pkg/database"
	"github.com/diagnosis/marketinn/pkg/events"
	"github.com/diagnosis/marketinn/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("API server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := handlers.Deps{
		CORSOrigins: cfg.CORSOrigins,
		LoginRateConfig: middleware.RateLimitConfig{
			Requests: cfg.Auth.LoginRateLimit,
			Window:   cfg.Auth.LoginRateWindow,
		},
	}

	var (
		store  repo.Store
		idemPG *postgres.IdempotencyRepoImpl
	)
	switch cfg.Storage {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	default:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return fmt.Errorf("migrate: %w", err)
			}
		}
		store = postgres.NewStore(pool)
		deps.LoginLimit = postgres.NewRateLimitRepo(pool)
		idemPG = postgres.NewIdempotencyRepo(pool)
		deps.Idempotency = idemPG
	}
	defer store.Close()
	deps.Health = store

	if cfg.Redis.URL != "" {
		rdb, err := redisstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		deps.LoginLimit = redisstore.NewCounter(rdb, "ratelimit:login:")
		deps.Idempotency = redisstore.NewIdempotencyStore(rdb)
		idemPG = nil
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		publisher = nc
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authSvc := service.NewAuthService(store.Users(), tokens, auth.NewHasher())
	deps.Auth = authSvc
	deps.Users = service.NewUserService(store.Users(), authSvc)
	deps.Bookings = service.NewBookingService(store.Bookings(), publisher)

	if _, err := authSvc.EnsureAdmin(ctx, service.AdminSeed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting API server", "port", cfg.Server.Port, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if idemPG != nil {
		g.Go(func() error {
			cleanupIdempotencyKeys(gctx, idemPG, time.Hour)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// cleanupIdempotencyKeys purges expired cached responses until ctx ends.
func cleanupIdempotencyKeys(ctx context.Context, r *postgres.IdempotencyRepoImpl, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.CleanupExpired(ctx)
			if err != nil {
				logger.WarnContext(ctx, "Idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "Expired idempotency keys removed", "count", n)
			}
		}
	}
}
