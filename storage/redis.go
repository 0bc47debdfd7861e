package storage

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "pomod"

// Redis persists keys in a Redis instance. Values are written without a
// TTL; a paused timer must survive arbitrarily long gaps between runs.
type Redis struct {
	client   *goredis.Client
	prefix   string
	addr     string
	db       int
	password string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisPassword sets the connection password.
func WithRedisPassword(password string) RedisOption {
	return func(s *Redis) {
		s.password = password
	}
}

// WithRedisDB selects the Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(s *Redis) {
		s.db = db
	}
}

// WithRedisPrefix overrides the key prefix. Defaults to "pomod".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *Redis) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

// WithRedisClient injects a pre-built client, mainly for tests.
func WithRedisClient(client *goredis.Client) RedisOption {
	return func(s *Redis) {
		if client != nil {
			s.client = client
		}
	}
}

// NewRedis connects to the Redis instance at addr and verifies the
// connection with a ping.
func NewRedis(addr string, opts ...RedisOption) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	s := &Redis{
		prefix: defaultRedisPrefix,
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}

	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return s, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load key %q from redis: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with no expiry.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save key %q to redis: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Redis) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Redis) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
