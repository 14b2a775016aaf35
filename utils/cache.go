// File: utils/cache.go
package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tecnicosrd/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	// CacheClient is the generic cache client (leaderboard, stats).
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// BookingCacheClient stores in-flight booking sessions.
	BookingCacheClient *redis.Client

	cacheMu sync.Mutex
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		GetLogger().Fatal("Failed to connect to Redis", zap.String("client", name), zap.Error(err))
	}
	return client
}

// InitRedis connects every Redis client used by the application.
func InitRedis() {
	GetCacheClient()
	GetAuthCacheClient()
	GetBookingCacheClient()
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "cache")
	}
	return CacheClient
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if AuthCacheClient == nil {
		AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "auth")
	}
	return AuthCacheClient
}

// GetBookingCacheClient returns the Redis client holding booking sessions.
func GetBookingCacheClient() *redis.Client {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if BookingCacheClient == nil {
		BookingCacheClient = newRedisClient(config.AppConfig.RedisBookingDB, "booking")
	}
	return BookingCacheClient
}

// RedisClients lists the initialised clients, for health checks.
func RedisClients() []*redis.Client {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	var out []*redis.Client
	for _, c := range []*redis.Client{CacheClient, AuthCacheClient, BookingCacheClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// JSONCache stores JSON-encoded values under string keys with a TTL.
type JSONCache interface {
	// GetJSON decodes the cached value into dst; found is false on a miss.
	GetJSON(ctx context.Context, key string, dst interface{}) (found bool, err error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisJSONCache implements JSONCache over a go-redis client.
type RedisJSONCache struct {
	client *redis.Client
}

// NewRedisJSONCache wraps client as a JSONCache.
func NewRedisJSONCache(client *redis.Client) *RedisJSONCache {
	return &RedisJSONCache{client: client}
}

func (c *RedisJSONCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisJSONCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisJSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// MemoryCache is an in-process JSONCache used by tests and local runs without Redis.
type MemoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now, entries: map[string]memoryEntry{}}
}

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.data, dst)
}

func (c *MemoryCache) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
