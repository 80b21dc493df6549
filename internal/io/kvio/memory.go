package kvio

import (
	"sync"

	"github.com/gnames/genomcat/internal/ent/kv"
)

type memory struct {
	mu  sync.Mutex
	ids map[string]int64
}

// NewMemory returns a key index kept in a map.
func NewMemory() kv.KeyIndex {
	return &memory{}
}

// Open creates an empty map.
func (m *memory) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = make(map[string]int64)
	return nil
}

// Close drops the map.
func (m *memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	return nil
}

// Add saves an id under a key if the key is new.
func (m *memory) Add(key string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[key]; ok {
		return false, nil
	}
	m.ids[key] = id
	return true, nil
}

// Get returns an id for a key.
func (m *memory) Get(key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[key]
	return id, ok, nil
}
