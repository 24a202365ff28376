// Package cache holds short-lived key/value state with explicit TTLs:
// the panel services list and the bot conversation state.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is a TTL key/value store. Values are JSON encoded.
type Store interface {
	// Get decodes the value stored under key into dest.
	// It reports false when the key is missing or expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value under key. A ttl <= 0 keeps the value until deleted.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by config.
func New(config Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(config.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(config), nil
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", config.Backend)
	}
}
