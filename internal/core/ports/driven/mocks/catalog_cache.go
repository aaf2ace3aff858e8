package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CatalogCache = (*MockCatalogCache)(nil)

// MockCatalogCache is an in-memory CatalogCache that counts hits and misses.
type MockCatalogCache struct {
	mu      sync.Mutex
	entries map[string]*domain.FieldDefinition

	Hits          int
	Misses        int
	Invalidations int

	// GetFn overrides GetField when set.
	GetFn func(code string) (*domain.FieldDefinition, bool, error)
}

// NewMockCatalogCache creates an empty cache.
func NewMockCatalogCache() *MockCatalogCache {
	return &MockCatalogCache{entries: make(map[string]*domain.FieldDefinition)}
}

func (m *MockCatalogCache) GetField(ctx context.Context, code string) (*domain.FieldDefinition, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.entries[code]
	if !ok {
		m.Misses++
		return nil, false, nil
	}
	m.Hits++
	return copyFieldDef(def), true, nil
}

func (m *MockCatalogCache) SetField(ctx context.Context, def *domain.FieldDefinition, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[def.Code] = copyFieldDef(def)
	return nil
}

func (m *MockCatalogCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*domain.FieldDefinition)
	m.Invalidations++
	return nil
}

// Len returns the number of cached entries.
func (m *MockCatalogCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
