// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package prefs

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/billowria/teampulse/internal/platform/constants"
)

// LocalCache persists the five preference flags across restarts. It is the
// bootstrap source of truth read before any network round trip.
type LocalCache interface {

	// Load returns all cached flags. An empty map means nothing cached.
	Load(ctx context.Context) (map[string]string, error)

	// Store replaces the cached flag set.
	Store(ctx context.Context, flags map[string]string) error
}

// RedisCache keeps the preference flags in a Redis hash, keyed per client
// instance under the prefs cache prefix.
type RedisCache struct {
	client    *redis.Client
	clientKey string
}

func NewRedisCache(client *redis.Client, clientKey string) *RedisCache {
	return &RedisCache{client: client, clientKey: clientKey}
}

func (cache *RedisCache) key() string {
	return constants.RedisPrefixPrefCache + cache.clientKey
}

func (cache *RedisCache) Load(ctx context.Context) (map[string]string, error) {
	flags, err := cache.client.HGetAll(ctx, cache.key()).Result()
	if err != nil {
		return nil, err
	}
	return flags, nil
}

func (cache *RedisCache) Store(ctx context.Context, flags map[string]string) error {
	values := make(map[string]any, len(flags))
	for name, value := range flags {
		values[name] = value
	}
	return cache.client.HSet(ctx, cache.key(), values).Err()
}

// MemoryCache is an in-process [LocalCache] used when no Redis client is
// configured and by tests.
type MemoryCache struct {
	flags map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{flags: map[string]string{}}
}

func (cache *MemoryCache) Load(_ context.Context) (map[string]string, error) {
	copied := make(map[string]string, len(cache.flags))
	for name, value := range cache.flags {
		copied[name] = value
	}
	return copied, nil
}

func (cache *MemoryCache) Store(_ context.Context, flags map[string]string) error {
	copied := make(map[string]string, len(flags))
	for name, value := range flags {
		copied[name] = value
	}
	cache.flags = copied
	return nil
}
