package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces our entries inside a possibly shared redis DB.
const keyPrefix = "iacache:"

// -----------------------------------------------------------------------------
// RedisStore
// -----------------------------------------------------------------------------

// RedisStore is the redis-backed cache store. Each entry keeps the same
// data+timestamp envelope as the file store so freshness evaluation stays
// backend-agnostic; no redis TTL is set because staleness is a read-time
// policy decision, not an eviction rule.
type RedisStore struct {
	client *redis.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisStore(addr, password string, db int, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Put(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload for %q: %w", key, err)
	}

	entry := models.MCacheEntry{
		Data:      payload,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := s.client.Set(context.Background(), keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry in redis: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Get(key string, dest interface{}) (time.Time, bool) {
	data, err := s.client.Get(context.Background(), keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.Logger.Warning("Redis read for %q failed: %v", key, err)
		}
		return time.Time{}, false
	}

	var entry models.MCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.Logger.Warning("Cache entry %q is unreadable: %v", key, err)
		return time.Time{}, false
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		s.Logger.Warning("Cache entry %q is unreadable: %v", key, err)
		return time.Time{}, false
	}
	return entry.Timestamp, true
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Delete(key string) bool {
	n, err := s.client.Del(context.Background(), keyPrefix+key).Result()
	if err != nil {
		s.Logger.Error("Redis delete for %q failed: %v", key, err)
		return false
	}
	return n > 0
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Keys(prefix string) []string {
	ctx := context.Background()
	var keys []string

	iter := s.client.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		s.Logger.Error("Redis key scan failed: %v", err)
	}
	sort.Strings(keys)
	return keys
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Clear() error {
	ctx := context.Background()

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear cache entry %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Info() []models.MCacheInfo {
	ctx := context.Background()
	var info []models.MCacheInfo

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var entry models.MCacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		info = append(info, models.MCacheInfo{
			Key:       strings.TrimPrefix(iter.Val(), keyPrefix),
			Timestamp: entry.Timestamp,
			SizeBytes: len(entry.Data),
		})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Key < info[j].Key })
	return info
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Close() error {
	return s.client.Close()
}
