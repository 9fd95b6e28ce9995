package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/checkout-shipping/pkg/config"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace          = "co"
	idempotencyPrefix     = "idempotency"
	checkoutSessionPrefix = "checkout_session"
	recentLockersPrefix   = "recent_lockers"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	LPush(context.Context, string, ...any) *redis.IntCmd
	LRem(context.Context, string, int64, any) *redis.IntCmd
	LTrim(context.Context, string, int64, int64) *redis.StatusCmd
	LRange(context.Context, string, int64, int64) *redis.StringSliceCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// Client wraps the redis connection helpers used by checkout sessions and caches.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// KV is the key/value surface used by the checkout session store.
type KV interface {
	Get(context.Context, string) (string, error)
	SetIfVersion(ctx context.Context, key, field string, expected int64, value string, ttl time.Duration) (bool, error)
	Del(context.Context, ...string) error
	CheckoutSessionKey(id string) string
}

// ListStore is the capped-list surface used by the recent lockers cache.
type ListStore interface {
	PushCapped(ctx context.Context, key string, value string, max int64, ttl time.Duration) error
	List(ctx context.Context, key string, limit int64) ([]string, error)
	RecentLockersKey(customerID string) string
}

// IdempotencyStore exposes minimal operations used by idempotency helpers.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
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

// Set stores a string value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns a string value stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errors.New("redis client not initialized")
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// setIfVersionScript replaces a JSON document only when its numeric field
// still holds the expected value. A missing key counts as version 0.
const setIfVersionScript = `
local current = redis.call('GET', KEYS[1])
local version = 0
if current then
  version = tonumber(cjson.decode(current)[ARGV[1]]) or 0
end
if version ~= tonumber(ARGV[2]) then
  return 0
end
if tonumber(ARGV[4]) > 0 then
  redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
else
  redis.call('SET', KEYS[1], ARGV[3])
end
return 1
`

// SetIfVersion atomically writes value at key if the stored JSON document's
// field equals expected. It reports false when another writer got there first.
func (c *Client) SetIfVersion(ctx context.Context, key, field string, expected int64, value string, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errors.New("redis client not initialized")
	}
	written, err := c.store.Eval(ctx, setIfVersionScript, []string{key}, field, expected, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// PushCapped moves value to the head of the list at key, keeps at most max
// entries and refreshes the TTL.
func (c *Client) PushCapped(ctx context.Context, key string, value string, max int64, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := c.store.LRem(ctx, key, 0, value).Err(); err != nil {
		return err
	}
	if err := c.store.LPush(ctx, key, value).Err(); err != nil {
		return err
	}
	if max > 0 {
		if err := c.store.LTrim(ctx, key, 0, max-1).Err(); err != nil {
			return err
		}
	}
	if ttl > 0 {
		return c.store.Expire(ctx, key, ttl).Err()
	}
	return nil
}

// List returns up to limit entries from the head of the list at key.
func (c *Client) List(ctx context.Context, key string, limit int64) ([]string, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	return c.store.LRange(ctx, key, 0, stop).Result()
}

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

// CheckoutSessionKey returns the key holding a serialized checkout session.
func (c *Client) CheckoutSessionKey(id string) string {
	return c.buildKey(checkoutSessionPrefix, id)
}

// RecentLockersKey returns the key of a customer's recently used lockers.
func (c *Client) RecentLockersKey(customerID string) string {
	return c.buildKey(recentLockersPrefix, customerID)
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
