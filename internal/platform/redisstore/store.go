// Package redisstore keeps wallet token claims and idempotent submission
// results in Redis so they are shared by every backend replica.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	tokenPrefix = "walletpay:token:"
	idemPrefix  = "walletpay:idem:"
)

// Connect opens a client and pings the server.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Store implements domain.TokenRegistry and domain.IdempotencyStore.
type Store struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Claim sets the fingerprint key only if absent.
func (s *Store) Claim(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, tokenPrefix+fingerprint, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim token: %w", err)
	}
	return ok, nil
}

// Get returns the stored result for key, or nil if there is none.
func (s *Store) Get(ctx context.Context, key string) (*domain.OrderSubmissionResult, error) {
	val, err := s.client.Get(ctx, idemPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	var res domain.OrderSubmissionResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("decode idempotency result: %w", err)
	}
	return &res, nil
}

// Put stores result under key for ttl.
func (s *Store) Put(ctx context.Context, key string, result domain.OrderSubmissionResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, idemPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("put idempotency key: %w", err)
	}
	return nil
}
