// Package cache provides a process wide cache for generated artifacts. By
// default an in-memory cache is used; UseRedisCache switches to a shared
// redis backend. Values are msgpack encoded so both backends behave the same.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for cache backends
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, expiration time.Duration) error
	Delete(key string) error
	Clear(prefix string) error
}

type memoryCache struct {
	c *gocache.Cache
}

func newMemoryCache() *memoryCache {
	c := gocache.NewCache().WithMaxSize(gocache.DefaultMaxSize)
	_ = c.StartJanitor()
	return &memoryCache{c: c}
}

func (m *memoryCache) Get(key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (m *memoryCache) Set(key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.c.SetWithTTL(key, value, expiration)
	return nil
}

func (m *memoryCache) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *memoryCache) Clear(prefix string) error {
	for _, key := range m.c.GetKeysByPattern(prefix+"*", 0) {
		m.c.Delete(key)
	}
	return nil
}

type redisCache struct {
	client *redis.Client
}

func (r *redisCache) Get(key string) ([]byte, bool, error) {
	data, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisCache) Set(key string, value []byte, expiration time.Duration) error {
	if expiration < 0 {
		expiration = 0
	}
	return r.client.Set(context.Background(), key, value, expiration).Err()
}

func (r *redisCache) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

func (r *redisCache) Clear(prefix string) error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

var cacheBackend Cache = newMemoryCache()

// SetCache sets the Cache backend used by the package level functions
func SetCache(c Cache) {
	cacheBackend = c
}

// UseRedisCache connects to redis with the given options and uses it as the
// cache backend
func UseRedisCache(options *redis.Options) error {
	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return errors.Wrap(err, "could not connect to redis")
	}
	SetCache(&redisCache{client: client})
	return nil
}

// Key constructs a cache key from the given parts
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get obtains the value for key and unmarshals it into target; the bool
// indicates if the key was present
func Get(key string, target any) (bool, error) {
	encoded, ok, err := cacheBackend.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err = msgpack.Unmarshal(encoded, target); err != nil {
		return false, errors.Wrap(err, "cache: could not unmarshal cached value")
	}
	return true, nil
}

// Set stores value under key with the given expiration; expiration <= 0 means
// no expiration
func Set(key string, value any, expiration time.Duration) error {
	encoded, err := msgpack.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "cache: could not marshal value")
	}
	return cacheBackend.Set(key, encoded, expiration)
}

// Delete removes the value for key
func Delete(key string) error {
	return cacheBackend.Delete(key)
}

// Clear removes all values whose key starts with prefix
func Clear(prefix string) error {
	return cacheBackend.Clear(prefix)
}
