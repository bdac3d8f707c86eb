package bootstrap

import (
	"context"

	"courtbook/internal/cache"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/config"

	"go.uber.org/fx"
)

var CacheModule = fx.Module("cache",
	fx.Provide(
		NewCacheStore,
		NewMessageCache,
	),
)

func NewCacheStore(lc fx.Lifecycle, cfg config.Config) (*cache.SQLiteStore, error) {
	store, err := cache.OpenSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func NewMessageCache(lc fx.Lifecycle, store *cache.SQLiteStore, clk clock.Clock, cfg config.Config) *cache.MessageCache {
	msgCache := cache.NewMessageCache(store, clk, cfg.Cache.TTL, cfg.Cache.MaxMessages)

	// Registered after the store's hook, so the flush runs before Close on the
	// way down.
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return msgCache.FlushStats()
		},
	})
	return msgCache
}
