package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"katydid-common-validation/pkg/validator/core"
)

// scanBatch 每次 SCAN 的建议数量
const scanBatch = 256

// globEscaper 转义 Redis glob 元字符，前缀按字面匹配
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RedisStore 基于 Redis 的存储
// 每个条目以 JSON 字符串存放在 prefix+key 下，Clear 只删除该前缀下的键
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	pattern string
	ttl     time.Duration
}

// NewRedisStore 创建 Redis 存储，ttl 为 0 表示不过期
// prefix 不能为空，否则 Clear 会删除整个库
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisStore, error) {
	if prefix == "" {
		return nil, fmt.Errorf("redis store: %w", core.ErrEmptyKeyPrefix)
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		pattern: globEscaper.Replace(prefix) + "*",
		ttl:     ttl,
	}, nil
}

// Get 读取条目
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeEntry(data)
}

// Set 写入条目
func (s *RedisStore) Set(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", entry.Key, err)
	}
	if err := s.client.Set(ctx, s.prefix+entry.Key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", entry.Key, err)
	}
	return nil
}

// Delete 删除条目
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear 删除前缀下全部键
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

// Entries 条目快照
// 扫描与读取之间被删除或过期的键会被跳过
func (s *RedisStore) Entries(ctx context.Context) ([]*Entry, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		entry, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Len 前缀下的键数量
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close 关闭客户端
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// keys 通过 SCAN 收集前缀下的全部键
func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", s.pattern, err)
	}
	return keys, nil
}

// decodeEntry 解码 JSON 条目
func decodeEntry(data []byte) (*Entry, error) {
	entry := &Entry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	if entry.Errors == nil {
		entry.Errors = make([]string, 0)
	}
	if entry.Warnings == nil {
		entry.Warnings = make([]string, 0)
	}
	return entry, nil
}
