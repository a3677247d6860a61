// Package session remembers which article URLs a caller has already been
// shown so later requests can exclude them.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

// DefaultTTL is how long a session's URLs are kept after the last write.
const DefaultTTL = 24 * time.Hour

// ErrEmptyID is returned for a blank session id.
var ErrEmptyID = errors.New("session: id is required")

// Store records surfaced URLs per session.
type Store interface {
	// Seen returns every URL remembered for id.
	Seen(ctx context.Context, id string) ([]string, error)
	// Remember adds urls to id and refreshes its expiry.
	Remember(ctx context.Context, id string, urls ...string) error
	Close() error
}

// Config selects and tunes the store. An empty Address selects the in-memory store.
type Config struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "curator:session:"
	}
}

// Open returns a Redis store when an address is configured, otherwise a memory store.
func Open(cfg Config, log logger.Logger) (Store, error) {
	cfg.SetDefaults()
	if cfg.Address == "" {
		log.Info("Using in-memory session store")
		return NewMemoryStore(cfg.TTL), nil
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Using Redis session store", logger.String("address", cfg.Address))
	return NewRedisStore(client, cfg), nil
}

// Merge appends the session's URLs to exclude. Lookup errors are logged and ignored.
func Merge(ctx context.Context, store Store, id string, exclude []string, log logger.Logger) []string {
	if store == nil || id == "" {
		return exclude
	}
	seen, err := store.Seen(ctx, id)
	if err != nil {
		log.Warn("Session lookup failed", logger.String("session_id", id), logger.Error(err))
		return exclude
	}
	out := make([]string, 0, len(exclude)+len(seen))
	out = append(out, exclude...)
	return append(out, seen...)
}
