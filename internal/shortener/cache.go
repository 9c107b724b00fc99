package shortener

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	idKeyPrefix  = "shorturl:id:"
	urlKeyPrefix = "shorturl:url:"

	DefaultCacheTTL = 24 * time.Hour

	// maxCacheWait caps a single Redis round trip when the caller sets no deadline.
	maxCacheWait = time.Second
)

// CachedRepository wraps a Repository with a Redis read-through cache. Both
// directions of the mapping are immutable once written, so entries never
// need invalidation; the TTL only bounds memory use.
//
// Each Redis call gets at most half of the caller's remaining deadline, so a
// stalled Redis still leaves the store time to answer. The client must be
// built with ContextTimeoutEnabled for go-redis to honour those deadlines.
type CachedRepository struct {
	store  Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

func NewCachedRepository(store Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{
		store:  store,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// cacheContext bounds a Redis call to half of ctx's remaining time.
func cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	wait := maxCacheWait
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; half < wait {
			wait = half
		}
	}
	return context.WithTimeout(ctx, wait)
}

// sharedContext detaches a lookup shared through singleflight from the
// cancellation of whichever caller started it, keeping that caller's budget.
func sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := DefaultStoreTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (r *CachedRepository) get(ctx context.Context, key string) (string, error) {
	ctx, cancel := cacheContext(ctx)
	defer cancel()
	return r.redis.Get(ctx, key).Result()
}

func idKey(id uint64) string {
	return idKeyPrefix + strconv.FormatUint(id, 10)
}

func urlKey(url string) string {
	return urlKeyPrefix + url
}

// FindURLByID checks Redis first and falls back to the store. Redis errors
// are logged and treated as a miss. Concurrent misses for the same id share
// one store query.
func (r *CachedRepository) FindURLByID(ctx context.Context, id uint64) (string, error) {
	key := idKey(id)

	val, err := r.get(ctx, key)
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		ctx, cancel := sharedContext(ctx)
		defer cancel()

		url, err := r.store.FindURLByID(ctx, id)
		if err != nil {
			return "", err
		}
		r.cache(ctx, id, url)
		return url, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// FindIDByURL checks Redis first and falls back to the store. Misses are
// not cached since an insert usually follows.
func (r *CachedRepository) FindIDByURL(ctx context.Context, url string) (uint64, error) {
	key := urlKey(url)

	val, err := r.get(ctx, key)
	if err == nil {
		if id, perr := strconv.ParseUint(val, 10, 64); perr == nil {
			return id, nil
		}
		r.logger.Warn("ignoring malformed cache entry", zap.String("key", key), zap.String("value", val))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	id, err := r.store.FindIDByURL(ctx, url)
	if err != nil {
		return 0, err
	}
	r.cache(ctx, id, url)

	return id, nil
}

// InsertURL writes through to the store and caches the new record.
func (r *CachedRepository) InsertURL(ctx context.Context, url string) (uint64, error) {
	id, err := r.store.InsertURL(ctx, url)
	if err != nil {
		return 0, err
	}
	r.cache(ctx, id, url)

	return id, nil
}

func (r *CachedRepository) cache(ctx context.Context, id uint64, url string) {
	ctx, cancel := cacheContext(ctx)
	defer cancel()

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, idKey(id), url, r.ttl)
	pipe.Set(ctx, urlKey(url), strconv.FormatUint(id, 10), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("redis set failed", zap.Uint64("id", id), zap.Error(err))
	}
}

// Ping checks the underlying store. The cache is optional, see PingCache.
func (r *CachedRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *CachedRepository) PingCache(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}

// Close closes both the store and the Redis client.
func (r *CachedRepository) Close() error {
	storeErr := r.store.Close()
	redisErr := r.redis.Close()

	if storeErr != nil && redisErr != nil {
		return fmt.Errorf("failed to close connections: store=%v, redis=%v", storeErr, redisErr)
	}
	if storeErr != nil {
		return storeErr
	}
	if redisErr != nil {
		return fmt.Errorf("failed to close redis: %w", redisErr)
	}

	return nil
}

var _ Repository = (*CachedRepository)(nil)
