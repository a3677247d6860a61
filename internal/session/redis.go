package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const connectionTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps each session as a Redis set with a sliding expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	cfg.SetDefaults()
	return &RedisStore{client: client, ttl: cfg.TTL, prefix: cfg.KeyPrefix}
}

// Seen implements Store. URLs are returned sorted.
func (s *RedisStore) Seen(ctx context.Context, id string) ([]string, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	urls, err := s.client.SMembers(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("session members: %w", err)
	}
	sort.Strings(urls)
	return urls, nil
}

// Remember implements Store.
func (s *RedisStore) Remember(ctx context.Context, id string, urls ...string) error {
	if id == "" {
		return ErrEmptyID
	}
	members := make([]any, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			members = append(members, u)
		}
	}
	if len(members) == 0 {
		return nil
	}

	key := s.key(id)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session remember: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
