package cache

import (
	"context"
	"fmt"
	"sync"

	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// 简单内存存储 - 无淘汰策略
// ============================================================================

// memoryStore 基于 map 的内存存储
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]*Entry)}
}

// Get 读取条目
func (s *memoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	return entry.clone(), nil
}

// Set 写入条目
func (s *memoryStore) Set(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[entry.Key] = entry.clone()
	return nil
}

// Delete 删除条目
func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Clear 清空
func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*Entry)
	return nil
}

// Entries 条目快照
func (s *memoryStore) Entries(context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*Entry, 0, len(s.data))
	for _, entry := range s.data {
		entries = append(entries, entry.clone())
	}
	return entries, nil
}

// Len 条目数量
func (s *memoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Close 内存存储没有需要释放的资源
func (s *memoryStore) Close() error {
	return nil
}
