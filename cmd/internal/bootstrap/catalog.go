package bootstrap

import (
	"context"

	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/shell/config"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

// NewCatalogClient creates the catalog client, wrapped in the Redis cache if REDIS_ADDR is set.
// The returned close function releases the Redis connection.
func NewCatalogClient(ctx context.Context, cfg config.Config, obs *Observability) (catalog.Client, func(), error) {
	var client catalog.Client = catalog.NewHTTPClient(cfg.CatalogURL, cfg.InternalAuthSecret, httpx.Client())

	if cfg.RedisAddr == "" {
		return client, func() {}, nil
	}

	redisClient, err := config.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}

	cached := catalog.NewCachedClient(client, redisClient, cfg.CatalogCacheTTL, obs.ContextualLogger)

	return cached, func() { _ = redisClient.Close() }, nil
}
