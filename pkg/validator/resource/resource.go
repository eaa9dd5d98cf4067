package resource

import (
	"fmt"
	"path"
	"sync"

	"katydid-common-validation/pkg/validator/core"
)

// Resource 内存中的资源节点，实现 core.Model
// 用于测试以及不依赖外部资源树的场景；业务模型通常嵌入它再扩展属性
type Resource struct {
	path        string
	title       string
	description string
	properties  map[string]any

	mu       sync.RWMutex
	children map[string]core.Model
}

// New 创建资源
func New(resourcePath string) *Resource {
	return &Resource{
		path:       path.Clean("/" + resourcePath),
		properties: make(map[string]any),
		children:   make(map[string]core.Model),
	}
}

// WithTitle 设置标题
func (r *Resource) WithTitle(title string) *Resource {
	r.title = title
	return r
}

// WithDescription 设置描述
func (r *Resource) WithDescription(description string) *Resource {
	r.description = description
	return r
}

// WithProperty 设置属性
func (r *Resource) WithProperty(key string, value any) *Resource {
	r.properties[key] = value
	return r
}

// Path 实现 core.Model
func (r *Resource) Path() string {
	return r.path
}

// Name 路径最后一段
func (r *Resource) Name() string {
	return path.Base(r.path)
}

// Title 实现 core.Model
func (r *Resource) Title() string {
	return r.title
}

// Description 实现 core.Model
func (r *Resource) Description() string {
	return r.description
}

// Property 读取属性
func (r *Resource) Property(key string) (any, bool) {
	value, ok := r.properties[key]
	return value, ok
}

// AddChild 挂载子资源，名称取子资源路径的最后一段
func (r *Resource) AddChild(child core.Model) {
	if child == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children[child.Name()] = child
}

// Child 实现 core.Model
func (r *Resource) Child(name string) (core.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	child, ok := r.children[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrChildNotFound, r.path, name)
	}
	return child, nil
}

// ChildPath 子资源的完整路径
func (r *Resource) ChildPath(name string) string {
	return path.Join(r.path, name)
}
