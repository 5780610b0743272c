package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartretail/storefront/pkg/config"
)

const keyNamespace = "storefront"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore persists slots as JSON strings in redis under a fixed namespace.
type RedisStore struct {
	store cmdable
	raw   *redis.Client
}

// NewRedis bootstraps a redis-backed store and verifies connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Save writes the slot as JSON with no expiry; slots live until overwritten.
func (s *RedisStore) Save(ctx context.Context, slot string, value any) error {
	if s.store == nil {
		return errors.New("redis store not initialized")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal slot %s: %w", slot, err)
	}
	return s.store.Set(ctx, s.key(slot), payload, 0).Err()
}

// Load reads the slot into dest. Missing keys and unparseable payloads both
// report absent; only transport failures surface as errors.
func (s *RedisStore) Load(ctx context.Context, slot string, dest any) (bool, error) {
	if s.store == nil {
		return false, errors.New("redis store not initialized")
	}
	raw, err := s.store.Get(ctx, s.key(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// Delete removes the slot.
func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	if s.store == nil {
		return errors.New("redis store not initialized")
	}
	return s.store.Del(ctx, s.key(slot)).Err()
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.store == nil {
		return errors.New("redis store not initialized")
	}
	return s.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}

func (s *RedisStore) key(slot string) string {
	return keyNamespace + ":" + strings.TrimSpace(slot)
}
