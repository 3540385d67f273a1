// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
)

// ErrCacheMiss is returned by a [Cache] for an absent key.
var ErrCacheMiss = errors.New("feed: cache miss")

// Cache is the byte-level store used by [CachedRepository].
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements [Cache] on go-redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps a Redis client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached bytes or [ErrCacheMiss].
func (cache *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := cache.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return value, err
}

// Set stores value under key for ttl.
func (cache *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return cache.client.Set(ctx, key, value, ttl).Err()
}

// CachedRepository serves [Repository] reads from a [Cache], falling back to
// the wrapped repository. Cache failures never fail a read.
type CachedRepository struct {
	next  Repository
	cache Cache
	ttl   time.Duration
}

// NewCachedRepository decorates next with cache.
func NewCachedRepository(next Repository, cache Cache, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, cache: cache, ttl: ttl}
}

func cacheKey(limit int) string {
	return constants.RedisPrefixLiveFeed + strconv.Itoa(limit)
}

// Recent returns the cached page for limit, filling it on a miss.
func (repository *CachedRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	logger := ctxutil.GetLogger(ctx)
	key := cacheKey(limit)

	cached, err := repository.cache.Get(ctx, key)
	switch {
	case err == nil:
		var entries []Entry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
		logger.Warn("feed_cache_decode_failed", slog.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		logger.Warn("feed_cache_get_failed", slog.String("error", err.Error()))
	}

	entries, err := repository.next.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(entries); err == nil {
		if err := repository.cache.Set(ctx, key, payload, repository.ttl); err != nil {
			logger.Warn("feed_cache_set_failed", slog.String("error", err.Error()))
		}
	}

	return entries, nil
}
