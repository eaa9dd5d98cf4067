package cache

import (
	"context"
	"fmt"
	"sync"

	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// LRU 存储 - 超出容量时淘汰最久未访问的条目
// ============================================================================

// defaultLRUSize 未指定容量时的默认容量
const defaultLRUSize = 1000

// lruStore LRU 存储
type lruStore struct {
	mu      sync.Mutex
	data    map[string]*lruNode
	head    *lruNode
	tail    *lruNode
	maxSize int
}

// lruNode LRU 链表节点
type lruNode struct {
	entry *Entry
	prev  *lruNode
	next  *lruNode
}

// NewLRUStore 创建 LRU 存储
func NewLRUStore(maxSize int) Store {
	if maxSize <= 0 {
		maxSize = defaultLRUSize
	}

	store := &lruStore{
		data:    make(map[string]*lruNode),
		maxSize: maxSize,
	}

	// 哨兵节点
	store.head = &lruNode{}
	store.tail = &lruNode{}
	store.reset()

	return store
}

// Get 读取条目并标记为最近访问
func (s *lruStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	s.moveToHead(node)
	return node.entry.clone(), nil
}

// Set 写入条目，超出容量时淘汰尾部
func (s *lruStore) Set(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.data[entry.Key]; ok {
		node.entry = entry.clone()
		s.moveToHead(node)
		return nil
	}

	node := &lruNode{entry: entry.clone()}
	s.data[entry.Key] = node
	s.addToHead(node)

	if len(s.data) > s.maxSize {
		removed := s.removeTail()
		delete(s.data, removed.entry.Key)
	}
	return nil
}

// Delete 删除条目
func (s *lruStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.data[key]; ok {
		s.removeNode(node)
		delete(s.data, key)
	}
	return nil
}

// Clear 清空
func (s *lruStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*lruNode)
	s.reset()
	return nil
}

// Entries 按最近访问顺序返回条目快照（最新的在前），不改变访问顺序
func (s *lruStore) Entries(context.Context) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*Entry, 0, len(s.data))
	for node := s.head.next; node != s.tail; node = node.next {
		entries = append(entries, node.entry.clone())
	}
	return entries, nil
}

// Len 条目数量
func (s *lruStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), nil
}

// Close 无资源需要释放
func (s *lruStore) Close() error {
	return nil
}

func (s *lruStore) reset() {
	s.head.next = s.tail
	s.tail.prev = s.head
}

// moveToHead 移动节点到头部
func (s *lruStore) moveToHead(node *lruNode) {
	s.removeNode(node)
	s.addToHead(node)
}

// addToHead 添加节点到头部
func (s *lruStore) addToHead(node *lruNode) {
	node.prev = s.head
	node.next = s.head.next
	s.head.next.prev = node
	s.head.next = node
}

// removeNode 摘除节点
func (s *lruStore) removeNode(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

// removeTail 摘除尾部节点
func (s *lruStore) removeTail() *lruNode {
	node := s.tail.prev
	s.removeNode(node)
	return node
}
