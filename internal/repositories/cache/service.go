package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	if client == nil {
		panic("redis client is required")
	}
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value at key into dest and reports whether it was present.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey builds "<entity>:<kind>:<value>".
func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func balanceKey(donorID string) string {
	return GenerateKey("reward", "balance", donorID)
}

// balanceKeyPattern matches every key produced by balanceKey.
func balanceKeyPattern() string {
	return GenerateKey("reward", "balance", "*")
}

// Reward balance caching
func (s *CacheService) GetBalance(ctx context.Context, donorID string) (int, bool, error) {
	var balance int
	found, err := s.Get(ctx, balanceKey(donorID), &balance)
	return balance, found, err
}

func (s *CacheService) SetBalance(ctx context.Context, donorID string, balance int) error {
	return s.Set(ctx, balanceKey(donorID), balance)
}

func (s *CacheService) InvalidateBalance(ctx context.Context, donorID string) error {
	return s.Delete(ctx, balanceKey(donorID))
}

// FlushBalances drops every cached reward balance and leaves the rest of
// the keyspace alone. It returns the number of keys removed.
func (s *CacheService) FlushBalances(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, balanceKeyPattern(), scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan cached balances: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete cached balances: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
