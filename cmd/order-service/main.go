package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/app"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/infra/httpx"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/cache"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/config"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.OTel.Enabled,
		ServiceName: cfg.OTel.ServiceName,
		Endpoint:    cfg.OTel.Endpoint,
		Environment: cfg.OTel.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	repo, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	orderOpts := []app.OrderOption{app.WithStockDecrement(cfg.Orders.DecrementStock)}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, "order")
		if err := cache.Ping(ctx, redisCache); err != nil {
			return err
		}
		orderOpts = append(orderOpts,
			app.WithIdempotencyCache(redisCache),
			app.WithSequencer(app.NewCacheSequencer(redisCache, repo)),
		)
		slog.Info("using redis for idempotency keys and order numbers", "addr", cfg.RedisAddr)
	} else {
		orderOpts = append(orderOpts, app.WithIdempotencyCache(cache.NewMemoryCache("order")))
	}

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	users := app.NewUserService(repo, issuer)
	handler := httpx.NewHandler(
		app.NewOrderService(repo, orderOpts...),
		app.NewCatalogService(repo, cfg.Orders.LowStockThreshold),
		users,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(handler, users),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("order service HTTP running", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
