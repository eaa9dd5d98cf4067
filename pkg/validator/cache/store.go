package cache

import (
	"context"
	"time"
)

// Entry 缓存条目
type Entry struct {
	// Key 缓存键：模型路径#模型类型
	Key string `json:"key"`
	// Errors ERROR 级别消息
	Errors []string `json:"errors"`
	// Warnings WARNING 级别消息
	Warnings []string `json:"warnings"`
	// Generation 写入时的缓存代数，每次清空后递增
	Generation uint64 `json:"generation"`
	// CachedAt 写入时间
	CachedAt time.Time `json:"cachedAt"`
}

// clone 深拷贝，存储层内外不共享切片
func (e *Entry) clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	c.Errors = append(make([]string, 0, len(e.Errors)), e.Errors...)
	c.Warnings = append(make([]string, 0, len(e.Warnings)), e.Warnings...)
	return &c
}

// Store 缓存存储后端
// 职责：只负责按键读写条目，并发控制和代数管理由 ResultCache 负责
type Store interface {
	// Get 读取条目，不存在时返回 core.ErrCacheMiss
	Get(ctx context.Context, key string) (*Entry, error)

	// Set 写入（覆盖）条目
	Set(ctx context.Context, entry *Entry) error

	// Delete 删除条目，不存在时不报错
	Delete(ctx context.Context, key string) error

	// Clear 删除全部条目
	Clear(ctx context.Context) error

	// Entries 全部条目快照
	Entries(ctx context.Context) ([]*Entry, error)

	// Len 条目数量
	Len(ctx context.Context) (int, error)

	// Close 释放存储持有的资源
	Close() error
}
