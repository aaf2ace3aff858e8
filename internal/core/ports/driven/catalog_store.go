package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// CatalogStore persists field definitions and document types. It only grows.
type CatalogStore interface {
	// GetFieldByCode retrieves a definition by code, or ErrNotFound.
	GetFieldByCode(ctx context.Context, code string) (*domain.FieldDefinition, error)

	// GetFieldByLabel retrieves the definition in section whose folded label
	// equals the folded label, or ErrNotFound.
	GetFieldByLabel(ctx context.Context, section domain.FieldSection, label string) (*domain.FieldDefinition, error)

	// ListFields returns every definition ordered by code.
	ListFields(ctx context.Context) ([]*domain.FieldDefinition, error)

	// GetOrCreateField inserts def unless its code exists, adds missing labels,
	// and returns the stored definition. Safe under concurrent callers.
	GetOrCreateField(ctx context.Context, def *domain.FieldDefinition) (*domain.FieldDefinition, error)

	// GetOrCreateDocumentType registers code unless it exists and returns it.
	GetOrCreateDocumentType(ctx context.Context, code, name string) (*domain.DocumentType, error)

	// ListDocumentTypes returns every document type ordered by code.
	ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error)
}

// FieldResolver looks fields up in the catalog during normalization.
// ErrNotFound means the field is unknown.
type FieldResolver interface {
	ResolveField(ctx context.Context, code string) (*domain.FieldDefinition, error)
	ResolveLabel(ctx context.Context, section domain.FieldSection, label string) (*domain.FieldDefinition, error)
}

// CatalogCache caches field definitions by code.
// Implementations may drop entries at any time.
type CatalogCache interface {
	// GetField returns the cached definition and whether it was found.
	GetField(ctx context.Context, code string) (*domain.FieldDefinition, bool, error)

	// SetField caches def for ttl.
	SetField(ctx context.Context, def *domain.FieldDefinition, ttl time.Duration) error

	// Invalidate drops every cached entry.
	Invalidate(ctx context.Context) error
}
