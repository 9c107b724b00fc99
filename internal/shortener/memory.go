package shortener

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository. Identifiers start at 1.
type MemoryRepository struct {
	mu     sync.RWMutex
	ids    map[string]uint64 // url -> id
	urls   map[uint64]string // id -> url
	lastID uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ids:  make(map[string]uint64),
		urls: make(map[uint64]string),
	}
}

func (m *MemoryRepository) FindIDByURL(_ context.Context, url string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.ids[url]
	if !ok {
		return 0, ErrNotFound
	}

	return id, nil
}

func (m *MemoryRepository) InsertURL(_ context.Context, url string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ids[url]; exists {
		return 0, ErrConflict
	}

	m.lastID++
	m.ids[url] = m.lastID
	m.urls[m.lastID] = url

	return m.lastID, nil
}

func (m *MemoryRepository) FindURLByID(_ context.Context, id uint64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, ok := m.urls[id]
	if !ok {
		return "", ErrNotFound
	}

	return url, nil
}

// Len returns the number of stored URLs.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.urls)
}

func (m *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
