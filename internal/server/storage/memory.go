package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

// MemoryStore is an in-process ObjectStore used in tests and when the server
// runs without object storage configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	body        []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{contentType: contentType, body: append([]byte(nil), body...)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), o.body...), nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", common.ErrorNotFound
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
