package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config selects and configures a storage backend. It carries plain values
// mapped from the application config at the call site.
type Config struct {
	// Backend selects the implementation: memory, file, sqlite, or redis.
	// Defaults to file.
	Backend string

	// Dir is the data directory for the file backend.
	Dir string

	// Path is the database file for the sqlite backend.
	Path string

	// Redis holds connection settings for the redis backend.
	Redis RedisConfig
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open creates the store selected by cfg.Backend.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return NewFile(cfg.Dir, logger)

	case "memory":
		return NewMemory(), nil

	case "sqlite":
		return NewSQLite(cfg.Path)

	case "redis":
		opts := []RedisOption{
			WithRedisPassword(cfg.Redis.Password),
			WithRedisDB(cfg.Redis.DB),
			WithRedisPrefix(cfg.Redis.Prefix),
		}
		return NewRedis(cfg.Redis.Addr, opts...)

	default:
		return nil, fmt.Errorf("unsupported storage backend %q (use memory, file, sqlite, or redis)", cfg.Backend)
	}
}
