package zebar

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glzr-io/zebar-sub000/ast"
)

// cache holds compiled templates, keyed by their exact source.
// Implementations must be safe for concurrent use.
type cache interface {
	get(source string) (*ast.ListNode, bool)
	add(source string, tree *ast.ListNode)
	len() int
}

// mapCache keeps every template it is given.
type mapCache struct {
	mu    sync.RWMutex
	trees map[string]*ast.ListNode
}

func newMapCache() *mapCache {
	return &mapCache{trees: make(map[string]*ast.ListNode)}
}

func (c *mapCache) get(source string) (*ast.ListNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var tree, ok = c.trees[source]
	return tree, ok
}

func (c *mapCache) add(source string, tree *ast.ListNode) {
	c.mu.Lock()
	c.trees[source] = tree
	c.mu.Unlock()
}

func (c *mapCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trees)
}

// lruCache keeps the most recently used templates, up to a fixed count.
type lruCache struct {
	lru *lru.Cache[string, *ast.ListNode]
}

func newLRUCache(size int) (*lruCache, error) {
	var c, err = lru.New[string, *ast.ListNode](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{c}, nil
}

func (c *lruCache) get(source string) (*ast.ListNode, bool) {
	return c.lru.Get(source)
}

func (c *lruCache) add(source string, tree *ast.ListNode) {
	if c.lru.Add(source, tree) {
		Logger.Debug("evicted template from cache", "size", c.lru.Len())
	}
}

func (c *lruCache) len() int {
	return c.lru.Len()
}

// noCache compiles every time.
type noCache struct{}

func (noCache) get(string) (*ast.ListNode, bool) { return nil, false }
func (noCache) add(string, *ast.ListNode)        {}
func (noCache) len() int                         { return 0 }
