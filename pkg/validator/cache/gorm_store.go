package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"katydid-common-validation/pkg/validator/core"
)

// cacheRecord 数据库中的缓存行
type cacheRecord struct {
	Key        string    `gorm:"column:cache_key;primaryKey;size:512"`
	Errors     []string  `gorm:"column:errors;serializer:json;type:text"`
	Warnings   []string  `gorm:"column:warnings;serializer:json;type:text"`
	Generation uint64    `gorm:"column:generation"`
	CachedAt   time.Time `gorm:"column:cached_at"`
}

// TableName 表名
func (cacheRecord) TableName() string {
	return "validation_cache_entries"
}

func (r *cacheRecord) toEntry() *Entry {
	entry := &Entry{
		Key:        r.Key,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		Generation: r.Generation,
		CachedAt:   r.CachedAt,
	}
	if entry.Errors == nil {
		entry.Errors = make([]string, 0)
	}
	if entry.Warnings == nil {
		entry.Warnings = make([]string, 0)
	}
	return entry
}

// GormStore 基于关系数据库的存储
type GormStore struct {
	db *gorm.DB
	// owned 为 true 时 Close 会关闭底层连接池（由 NewStore 打开的连接）
	owned bool
}

// NewGormStore 创建数据库存储并迁移缓存表
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&cacheRecord{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", cacheRecord{}.TableName(), err)
	}
	return &GormStore{db: db}, nil
}

// Get 读取条目
func (s *GormStore) Get(ctx context.Context, key string) (*Entry, error) {
	var record cacheRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("query cache entry %s: %w", key, err)
	}
	return record.toEntry(), nil
}

// Set 按键 upsert 条目
func (s *GormStore) Set(ctx context.Context, entry *Entry) error {
	record := &cacheRecord{
		Key:        entry.Key,
		Errors:     entry.Errors,
		Warnings:   entry.Warnings,
		Generation: entry.Generation,
		CachedAt:   entry.CachedAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("upsert cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// Delete 删除条目
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&cacheRecord{}).Error; err != nil {
		return fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return nil
}

// Clear 删除全部条目
func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&cacheRecord{}).Error
	if err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}
	return nil
}

// Entries 条目快照
func (s *GormStore) Entries(ctx context.Context) ([]*Entry, error) {
	var records []cacheRecord
	if err := s.db.WithContext(ctx).Order("cache_key").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}

	entries := make([]*Entry, 0, len(records))
	for i := range records {
		entries = append(entries, records[i].toEntry())
	}
	return entries, nil
}

// Len 条目数量
func (s *GormStore) Len(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&cacheRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return int(count), nil
}

// Close 关闭自己打开的连接池，外部传入的连接由调用方管理
func (s *GormStore) Close() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
