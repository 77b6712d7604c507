package objstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store. Failures can be injected per key.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]error
	ops     []string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		fail:    make(map[string]error),
	}
}

// Put stores data at key.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Get returns the object at key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// FailOn makes every operation touching key return err.
func (m *Memory) FailOn(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[key] = err
}

// Keys returns the stored keys, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ops returns the operations performed so far, e.g. "copy a -> b".
func (m *Memory) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "exists "+key)
	if err := m.fail[key]; err != nil {
		return false, err
	}
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) Copy(_ context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "copy "+srcKey+" -> "+dstKey)
	for _, k := range []string{srcKey, dstKey} {
		if err := m.fail[k]; err != nil {
			return err
		}
	}
	b, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("copy %s: %w", srcKey, ErrNotFound)
	}
	m.objects[dstKey] = append([]byte(nil), b...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "delete "+key)
	if err := m.fail[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}
