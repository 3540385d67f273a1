// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/dberr"
)

// RedisEmailChangeRepository implements EmailChangeRepository using Redis.
type RedisEmailChangeRepository struct {
	client redis.UniversalClient
}

// NewEmailChangeRepository creates a new Redis-backed EmailChangeRepository.
func NewEmailChangeRepository(client redis.UniversalClient) *RedisEmailChangeRepository {
	return &RedisEmailChangeRepository{client: client}
}

func emailChangeKey(userID string) string {
	return constants.RedisPrefixEmailChange + userID
}

/*
Set stores a pending change with its TTL, replacing any earlier one.
*/
func (repository *RedisEmailChangeRepository) Set(context context.Context, userID string, change EmailChange, ttl time.Duration) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("redis_email_change_marshal_failed: %w", err)
	}

	if err := repository.client.Set(context, emailChangeKey(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_email_change_set_failed: %w", err)
	}
	return nil
}

/*
Get returns the pending change, or apperr.NotFound when absent or expired.
*/
func (repository *RedisEmailChangeRepository) Get(context context.Context, userID string) (*EmailChange, error) {
	payload, err := repository.client.Get(context, emailChangeKey(userID)).Bytes()
	if err != nil {
		return nil, dberr.Wrap(err, "Email change", "redis_email_change_get")
	}

	var change EmailChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return nil, fmt.Errorf("redis_email_change_decode_failed: %w", err)
	}
	return &change, nil
}

// Delete removes the pending change.
func (repository *RedisEmailChangeRepository) Delete(context context.Context, userID string) error {
	if err := repository.client.Del(context, emailChangeKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_email_change_delete_failed: %w", err)
	}
	return nil
}
