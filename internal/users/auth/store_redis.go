// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/constants"
)

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

/*
Set stores a reset token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID string, ttl time.Duration) error {

	key := constants.RedisPrefixResetToken + token

	// Set the token with TTL
	if err := repository.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the userID for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Original UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {

	key := constants.RedisPrefixResetToken + token

	userID, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token is invalid or expired")
		}
		return "", fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}

	return userID, nil
}

/*
Delete removes the token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {

	key := constants.RedisPrefixResetToken + token

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}

	return nil
}

// # Session Index

// RedisSessionIndex mirrors the active refresh-token sessions of each user
// so that cross-device revocation fanout (sign-out everywhere, password
// reset) can notify connected API nodes without polling Postgres.
type RedisSessionIndex struct {
	client *redis.Client
}

// NewSessionIndex creates a Redis-backed session index.
func NewSessionIndex(client *redis.Client) *RedisSessionIndex {
	return &RedisSessionIndex{client: client}
}

/*
Track records a session ID under the user's active-session set.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (index *RedisSessionIndex) Track(context context.Context, userID, sessionID string, ttl time.Duration) error {

	key := constants.RedisPrefixSession + userID

	pipe := index.client.TxPipeline()
	pipe.SAdd(context, key, sessionID)
	pipe.Expire(context, key, ttl)

	if _, err := pipe.Exec(context); err != nil {
		return fmt.Errorf("redis_session_index_track_failed: %w", err)
	}

	return nil
}

/*
Forget removes a revoked session from the user's active-session set.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: Execution errors
*/
func (index *RedisSessionIndex) Forget(context context.Context, userID, sessionID string) error {

	key := constants.RedisPrefixSession + userID

	if err := index.client.SRem(context, key, sessionID).Err(); err != nil {
		return fmt.Errorf("redis_session_index_forget_failed: %w", err)
	}

	return nil
}

/*
Clear drops the whole active-session set for a user.

Description: Used after bulk revocations (password reset, sign-out everywhere).

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (index *RedisSessionIndex) Clear(context context.Context, userID string) error {

	key := constants.RedisPrefixSession + userID

	if err := index.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_index_clear_failed: %w", err)
	}

	return nil
}
