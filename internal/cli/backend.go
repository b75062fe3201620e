package cli

import (
	"context"

	"biteme-be/internal/auth"
	"biteme-be/internal/catalog"
	"biteme-be/internal/config"
	"biteme-be/internal/db"
	"biteme-be/internal/logger"
	"biteme-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// openBackend connects to the stores the API server uses. Catalog writes
// invalidate the shared Redis cache when one is configured.
func openBackend(ctx context.Context) (*Backend, error) {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)

	m, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	closers := []func(context.Context) error{m.Close}

	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.L().Warn("redis unreachable, cache will not be invalidated", zap.Error(err))
		}
		cache = catalog.NewRedisCache(rdb, cfg.CacheTTL)
		closers = append(closers, func(context.Context) error { return rdb.Close() })
	}

	closeAll := func(ctx context.Context) error {
		defer logger.Sync()
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	catalogRepo := catalog.NewRepository(m.DB, cfg.StoreTimeout)
	userRepo := user.NewRepository(m.DB, cfg.StoreTimeout)
	if err := catalogRepo.EnsureIndexes(ctx); err != nil {
		_ = closeAll(ctx)
		return nil, err
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		_ = closeAll(ctx)
		return nil, err
	}

	return &Backend{
		Catalog: catalog.NewService(catalogRepo, cache, catalog.NewQRGenerator(), cfg.PublicBaseURL),
		Users:   user.NewService(userRepo, auth.NewCredentials(cfg.JWTSecret, cfg.AccessTokenTTL)),
		Close:   closeAll,
	}, nil
}
