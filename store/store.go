// Package store persists the service state as small key-value documents.
//
// A Store always hands out the whole document at once; the typed
// Collection keeps an in-memory copy and writes through on every change.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("not found")

// Store is a flat key-value document backend
type Store interface {
	// All returns every document, decoded from one consistent read
	All() (map[string][]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// Replace swaps the entire document set
	Replace(docs map[string][]byte) error
	Close() error
}

// Collection is a typed, mutex-guarded view over a Store
type Collection[T any] struct {
	mu      sync.RWMutex
	backend Store
	items   map[string]T
}

// NewCollection loads every document of the backend into memory
func NewCollection[T any](backend Store) (*Collection[T], error) {
	c := &Collection[T]{backend: backend, items: make(map[string]T)}

	docs, err := backend.All()
	if err != nil {
		return c, fmt.Errorf("load collection: %w", err)
	}
	for key, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return c, fmt.Errorf("decode %q: %w", key, err)
		}
		c.items[key] = v
	}
	return c, nil
}

// Get returns a copy of the value stored under key
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Len returns the number of stored values
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns all keys in sorted order
func (c *Collection[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.items)
}

// List returns every value ordered by key
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, k := range sortedKeys(c.items) {
		out = append(out, c.items[k])
	}
	return out
}

// Find returns the first value, in key order, accepted by match
func (c *Collection[T]) Find(match func(T) bool) (string, T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range sortedKeys(c.items) {
		if match(c.items[k]) {
			return k, c.items[k], true
		}
	}
	var zero T
	return "", zero, false
}

// Put stores a value. The memory copy is updated even if the write fails.
func (c *Collection[T]) Put(key string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = v
	return c.write(key, v)
}

// Delete removes a value
func (c *Collection[T]) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return ErrNotFound
	}
	delete(c.items, key)
	if err := c.backend.Delete(key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Update applies fn to the value under key while holding the lock. fn
// reports whether the value changed and should be written.
func (c *Collection[T]) Update(key string, fn func(v *T) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return ErrNotFound
	}
	if !fn(&v) {
		return nil
	}
	c.items[key] = v
	return c.write(key, v)
}

// Replace swaps the whole collection
func (c *Collection[T]) Replace(items map[string]T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs := make(map[string][]byte, len(items))
	next := make(map[string]T, len(items))
	for k, v := range items {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
		docs[k] = raw
		next[k] = v
	}
	c.items = next
	if err := c.backend.Replace(docs); err != nil {
		return fmt.Errorf("replace collection: %w", err)
	}
	return nil
}

// DeleteWhere removes every value accepted by match and returns how many went
func (c *Collection[T]) DeleteWhere(match func(T) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, v := range c.items {
		if !match(v) {
			continue
		}
		delete(c.items, k)
		removed++
		if err := c.backend.Delete(k); err != nil {
			return removed, fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return removed, nil
}

func (c *Collection[T]) write(key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := c.backend.Put(key, raw); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
