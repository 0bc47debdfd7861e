// Package storage provides the key-value persistence layer for timer state
// and session history.
//
// The timer core reads and writes whole JSON documents under well-known keys,
// so the interface is deliberately small: get a string, set a string. Each
// Set is atomic with respect to concurrent readers; partially written values
// are never observable.
//
// Four backends are provided: in-memory (tests), flat files, SQLite, and
// Redis. Open selects one from configuration.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a minimal key-value store for JSON documents.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}
