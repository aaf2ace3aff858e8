package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FileInspector = (*MockFileInspector)(nil)

// MockFileInspector serves file metadata from a map.
type MockFileInspector struct {
	mu      sync.RWMutex
	objects map[string]*domain.FileInfo

	// InspectFn overrides Inspect when set.
	InspectFn func(ref string) (*domain.FileInfo, error)
}

// NewMockFileInspector creates an inspector with no objects.
func NewMockFileInspector() *MockFileInspector {
	return &MockFileInspector{objects: make(map[string]*domain.FileInfo)}
}

// Put registers an object (for test setup).
func (m *MockFileInspector) Put(ref string, info domain.FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = &info
}

func (m *MockFileInspector) Inspect(ctx context.Context, ref string) (*domain.FileInfo, error) {
	if m.InspectFn != nil {
		return m.InspectFn(ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.objects[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *info
	return &cp, nil
}
