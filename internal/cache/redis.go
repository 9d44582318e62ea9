package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nitpickr-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Client is the process-wide Redis connection, set by Init.
var Client *Store

var log = logger.New("cache")

// Store wraps a Redis client with JSON-aware helpers.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Init connects to Redis and installs the result as Client.
func Init(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis client ready", "addr", opts.Addr)
	Client = New(rdb)
	return nil
}

func (s *Store) Redis() *redis.Client {
	return s.rdb
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Set stores value, JSON-encoding anything that is not a string. A zero ttl
// keeps the key forever.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		payload = string(b)
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// Get decodes the JSON value stored at key into dest. Plain strings are
// accepted when dest is *string.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if sp, ok := dest.(*string); ok {
			*sp = raw
			return nil
		}
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// GetInt returns the integer stored at key; ok is false when absent.
func (s *Store) GetInt(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// SetNX stores value only when key is absent and reports whether it did.
func (s *Store) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *Store) Incr(ctx context.Context, key string, by int64) (int64, error) {
	return s.rdb.IncrBy(ctx, key, by).Result()
}

func (s *Store) Decr(ctx context.Context, key string, by int64) (int64, error) {
	return s.rdb.DecrBy(ctx, key, by).Result()
}

// Del removes keys and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.rdb.Del(ctx, keys...).Result()
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

func (s *Store) HSet(ctx context.Context, key, field string, value interface{}) error {
	payload, ok := value.(string)
	if !ok {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", key, field, err)
		}
		payload = string(b)
	}
	return s.rdb.HSet(ctx, key, field, payload).Err()
}

func (s *Store) HGet(ctx context.Context, key, field string, dest interface{}) error {
	raw, err := s.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if sp, ok := dest.(*string); ok {
			*sp = raw
			return nil
		}
		return fmt.Errorf("decode %s.%s: %w", key, field, err)
	}
	return nil
}

// HGetAll returns every field of a hash, JSON-decoding values that parse.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]interface{}, error) {
	values, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(values))
	for field, raw := range values {
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			out[field] = raw
			continue
		}
		out[field] = v
	}
	return out, nil
}

// Keys lists the keys matching pattern using SCAN so large keyspaces do not
// block the server.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// DelPattern deletes every key matching pattern.
func (s *Store) DelPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	return s.Del(ctx, keys...)
}
