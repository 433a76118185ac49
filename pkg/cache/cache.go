package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLUser    = 10 * time.Minute // 사용자 프로필 (변경 빈도 낮음)
	TTLRoom    = 1 * time.Minute  // 방 상세 (멤버 변동 시 무효화)
	TTLDefault = 5 * time.Minute  // 기본값
)

// 캐시 키 접두사
const (
	PrefixUser = "user:"
	PrefixRoom = "room:"
)

// ErrCacheMiss is returned when a key is absent or the cache is down
var ErrCacheMiss = errors.New("cache miss")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// 사용자 캐시
	GetUser(ctx context.Context, userID int64, dest interface{}) error
	SetUser(ctx context.Context, userID int64, data interface{}) error
	InvalidateUser(ctx context.Context, userID int64) error

	// 방 캐시
	GetRoom(ctx context.Context, roomID int64, dest interface{}) error
	SetRoom(ctx context.Context, roomID int64, data interface{}) error
	InvalidateRoom(ctx context.Context, roomIDs ...int64) error

	// 유틸리티
	IsAvailable() bool
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache Service. A nil client yields a cache
// that misses on every read and ignores every write, so the server
// keeps running without redis.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether a redis client is wired
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Get reads a JSON value into dest
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

// Set stores a value as JSON with the given TTL
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetUser reads a cached user profile
func (c *redisCache) GetUser(ctx context.Context, userID int64, dest interface{}) error {
	return c.Get(ctx, userKey(userID), dest)
}

// SetUser caches a user profile
func (c *redisCache) SetUser(ctx context.Context, userID int64, data interface{}) error {
	return c.Set(ctx, userKey(userID), data, TTLUser)
}

// InvalidateUser drops a cached user profile
func (c *redisCache) InvalidateUser(ctx context.Context, userID int64) error {
	return c.Delete(ctx, userKey(userID))
}

// GetRoom reads a cached room detail
func (c *redisCache) GetRoom(ctx context.Context, roomID int64, dest interface{}) error {
	return c.Get(ctx, roomKey(roomID), dest)
}

// SetRoom caches a room detail
func (c *redisCache) SetRoom(ctx context.Context, roomID int64, data interface{}) error {
	return c.Set(ctx, roomKey(roomID), data, TTLRoom)
}

// InvalidateRoom drops cached room details
func (c *redisCache) InvalidateRoom(ctx context.Context, roomIDs ...int64) error {
	keys := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		keys = append(keys, roomKey(id))
	}
	return c.Delete(ctx, keys...)
}

func userKey(userID int64) string {
	return PrefixUser + strconv.FormatInt(userID, 10)
}

func roomKey(roomID int64) string {
	return PrefixRoom + strconv.FormatInt(roomID, 10)
}
