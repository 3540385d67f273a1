// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package channel

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/cryptox"
)

// RedisKeyStore keeps key material in Redis as base64 strings.
type RedisKeyStore struct {
	client redis.UniversalClient
}

// NewRedisKeyStore creates a [RedisKeyStore].
func NewRedisKeyStore(client redis.UniversalClient) *RedisKeyStore {
	return &RedisKeyStore{client: client}
}

// Material returns the stored material, issuing fresh material with SETNX on a
// miss. Every read extends the TTL, so material in use does not expire.
func (store *RedisKeyStore) Material(ctx context.Context, userID string) ([]byte, error) {
	key := constants.RedisPrefixChannelKey + userID

	if material, err := store.get(ctx, key); err == nil {
		return material, nil
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	fresh, err := cryptox.NewKeyMaterial()
	if err != nil {
		return nil, err
	}

	created, err := store.client.SetNX(ctx, key, base64.StdEncoding.EncodeToString(fresh), KeyMaterialTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_channel_key_set_failed: %w", err)
	}
	if created {
		return fresh, nil
	}

	// Another request won the race
	return store.get(ctx, key)
}

func (store *RedisKeyStore) get(ctx context.Context, key string) ([]byte, error) {
	encoded, err := store.client.GetEx(ctx, key, KeyMaterialTTL).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("redis_channel_key_get_failed: %w", err)
	}

	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("redis_channel_key_decode_failed: %w", err)
	}
	return material, nil
}
