package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	// DefaultCacheTTL is used when NewCachedClient gets a non-positive TTL.
	DefaultCacheTTL = 10 * time.Minute

	cacheKeyPrefix = "catalog:item:"

	logMsgCacheReadFailed  = "catalog cache read failed"
	logMsgCacheWriteFailed = "catalog cache write failed"
)

// CachedClient decorates a Client with a Redis cache.
// Cache failures never fail a lookup, they degrade to calling the wrapped Client.
type CachedClient struct {
	next   Client
	redis  redis.UniversalClient
	ttl    time.Duration
	obs    shell.Observability
}

// NewCachedClient wraps next. logger may be nil.
func NewCachedClient(next Client, client redis.UniversalClient, ttl time.Duration, logger shell.ContextualLogger) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedClient{
		next:   next,
		redis:  client,
		ttl:    ttl,
		obs:    shell.Observability{ContextualLogger: logger},
	}
}

// Item implements Client.
func (c *CachedClient) Item(ctx context.Context, itemID int64) (ItemInfo, error) {
	raw, err := c.redis.Get(ctx, cacheKey(itemID)).Bytes()
	switch {
	case err == nil:
		var info ItemInfo
		if decodeErr := jsoniter.ConfigFastest.Unmarshal(raw, &info); decodeErr == nil {
			return info, nil
		}
	case !errors.Is(err, redis.Nil):
		c.obs.Warn(ctx, logMsgCacheReadFailed, shell.LogAttrItemID, itemID, shell.LogAttrError, err.Error())
	}

	info, err := c.next.Item(ctx, itemID)
	if err != nil {
		return ItemInfo{}, err
	}

	c.store(ctx, []ItemInfo{info})

	return info, nil
}

// Items implements Client.
func (c *CachedClient) Items(ctx context.Context, itemIDs []int64) (map[int64]ItemInfo, error) {
	found := make(map[int64]ItemInfo, len(itemIDs))
	if len(itemIDs) == 0 {
		return found, nil
	}

	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = cacheKey(id)
	}

	missing := itemIDs

	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.obs.Warn(ctx, logMsgCacheReadFailed, shell.LogAttrError, err.Error())
	} else {
		missing = make([]int64, 0, len(itemIDs))

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				missing = append(missing, itemIDs[i])
				continue
			}

			var info ItemInfo
			if decodeErr := jsoniter.ConfigFastest.UnmarshalFromString(raw, &info); decodeErr != nil {
				missing = append(missing, itemIDs[i])
				continue
			}

			found[info.ID] = info
		}
	}

	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := c.next.Items(ctx, missing)
	if err != nil {
		return nil, err
	}

	toStore := make([]ItemInfo, 0, len(fetched))
	for id, info := range fetched {
		found[id] = info
		toStore = append(toStore, info)
	}

	c.store(ctx, toStore)

	return found, nil
}

// Invalidate drops the cached metadata of itemID.
func (c *CachedClient) Invalidate(ctx context.Context, itemID int64) error {
	return c.redis.Del(ctx, cacheKey(itemID)).Err()
}

func (c *CachedClient) store(ctx context.Context, infos []ItemInfo) {
	if len(infos) == 0 {
		return
	}

	pipe := c.redis.Pipeline()

	for _, info := range infos {
		raw, err := jsoniter.ConfigFastest.Marshal(info)
		if err != nil {
			continue
		}

		pipe.Set(ctx, cacheKey(info.ID), raw, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.obs.Warn(ctx, logMsgCacheWriteFailed, shell.LogAttrError, err.Error())
	}
}

func cacheKey(itemID int64) string {
	return cacheKeyPrefix + strconv.FormatInt(itemID, 10)
}

var _ Client = (*CachedClient)(nil)
