package core

import "errors"

var (
	// ErrChildNotFound 子资源不存在
	ErrChildNotFound = errors.New("child resource not found")

	// ErrInvalidModelType 子资源无法适配为期望的模型类型
	ErrInvalidModelType = errors.New("invalid model type")

	// ErrCacheMiss 缓存中不存在该模型的验证结果（从未验证或已失效）
	// 与“验证通过且没有消息”严格区分
	ErrCacheMiss = errors.New("validation cache miss")

	// ErrNilModel 模型为nil
	ErrNilModel = errors.New("model cannot be nil")

	// ErrNilValidator 验证器为nil
	ErrNilValidator = errors.New("validator cannot be nil")

	// ErrUnknownSeverity 无法识别的消息级别
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrUnsupportedBackend 不支持的缓存后端或数据库驱动
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrEmptyKeyPrefix 共享存储的键前缀为空，清空缓存会删除不属于引擎的键
	ErrEmptyKeyPrefix = errors.New("cache key prefix cannot be empty")
)
