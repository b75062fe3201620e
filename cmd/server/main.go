package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biteme-be/internal/auth"
	"biteme-be/internal/catalog"
	"biteme-be/internal/config"
	"biteme-be/internal/db"
	"biteme-be/internal/events"
	"biteme-be/internal/httpapi"
	"biteme-be/internal/logger"
	"biteme-be/internal/metrics"
	"biteme-be/internal/middleware"
	"biteme-be/internal/order"
	"biteme-be/internal/recommendation"
	"biteme-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	connectMongoFunc = func(ctx context.Context, cfg *config.Config) (*db.Mongo, error) {
		return db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	}
	startServerFunc = func(srv *http.Server) error {
		return srv.ListenAndServe()
	}
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

// dependencies are the long-lived connections the server owns.
type dependencies struct {
	mongo     *mongo.Database
	store     httpapi.Pinger
	history   *sql.DB
	redis     redis.UniversalClient
	publisher events.Publisher

	closers []func(context.Context) error
}

func (d *dependencies) Close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			logger.L().Warn("failed to close dependency", zap.Error(err))
		}
	}
}

type indexedStore interface {
	EnsureIndexes(ctx context.Context) error
}

type app struct {
	handler http.Handler
	stores  []indexedStore
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := openDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.Close(closeCtx)
	}()

	a := newApp(ctx, cfg, deps)
	for _, s := range a.stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("api_prefix", httpapi.APIPrefix),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	log := logger.L()
	deps := &dependencies{}

	m, err := connectMongoFunc(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.mongo = m.DB
	deps.store = m
	deps.closers = append(deps.closers, m.Close)

	if cfg.HistoryEnabled() {
		pg, err := db.NewPostgres(cfg)
		if err != nil {
			deps.Close(ctx)
			return nil, err
		}
		deps.history = pg
		deps.closers = append(deps.closers, func(context.Context) error { return pg.Close() })
	} else {
		log.Warn("DB_HOST not set, order status history is disabled")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, catalog reads will miss the cache", zap.Error(err))
		}
		deps.redis = rdb
		deps.closers = append(deps.closers, func(context.Context) error { return rdb.Close() })
	}

	pub, err := events.New(cfg)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}
	deps.publisher = pub
	deps.closers = append(deps.closers, func(context.Context) error { return pub.Close() })

	return deps, nil
}

func newApp(ctx context.Context, cfg *config.Config, deps *dependencies) *app {
	stats := &metrics.Orders{}

	catalogRepo := catalog.NewRepository(deps.mongo, cfg.StoreTimeout)
	var cache catalog.Cache
	if deps.redis != nil {
		cache = catalog.NewRedisCache(deps.redis, cfg.CacheTTL)
	}
	catalogSvc := catalog.NewService(catalogRepo, cache, catalog.NewQRGenerator(), cfg.PublicBaseURL)

	var history order.HistoryRepository
	if deps.history != nil {
		history = order.NewHistoryRepository(deps.history, cfg.StoreTimeout)
	}
	orderRepo := order.NewRepository(deps.mongo, cfg.StoreTimeout)
	orderSvc := order.NewService(orderRepo, catalogRepo, history, deps.publisher, stats)

	userRepo := user.NewRepository(deps.mongo, cfg.StoreTimeout)
	userSvc := user.NewService(userRepo, auth.NewCredentials(cfg.JWTSecret, cfg.AccessTokenTTL))

	recSvc := recommendation.NewService(catalogSvc, orderSvc, recommendation.NewClient(cfg.RecommenderURL))

	h := &httpapi.Handler{
		Orders:          orderSvc,
		Users:           userSvc,
		Catalog:         catalogSvc,
		Recommendations: recSvc,
		Store:           deps.store,
		Stats:           stats,
	}

	return &app{
		handler: httpapi.NewRouter(h, httpapi.RouterOptions{
			Authenticator: userSvc,
			Limiter:       middleware.NewRateLimiter(ctx, cfg.InternalSecretKey),
			CORSOrigins:   cfg.CORSOrigins,
		}),
		stores: []indexedStore{catalogRepo, orderRepo, userRepo},
	}
}
