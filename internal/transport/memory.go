package transport

import (
	"context"
	"strings"
	"sync"

	"github.com/iudanet/confsync/internal/models"
)

// MemoryStore хранилище объектов в памяти. Используется в тестах и для
// синхронизации нескольких координаторов внутри одного процесса.
type MemoryStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Get возвращает копию объекта.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put сохраняет копию объекта.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// Delete удаляет объект.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// List возвращает ключи с префиксом.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
