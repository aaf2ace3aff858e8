package driving

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// CreateFieldRequest registers a field code in the catalog.
type CreateFieldRequest struct {
	Code     string              `json:"code" validate:"required,max=100"`
	Section  domain.FieldSection `json:"section" validate:"required"`
	DataType domain.DataType     `json:"data_type"`
	Labels   []domain.FieldLabel `json:"labels" validate:"dive"`
}

// CatalogService manages known field definitions and document types
type CatalogService interface {
	// ResolveField retrieves a definition by code; ErrNotFound means unknown
	ResolveField(ctx context.Context, code string) (*domain.FieldDefinition, error)

	// ListFields retrieves all definitions
	ListFields(ctx context.Context) ([]*domain.FieldDefinition, error)

	// GetOrCreateField registers a definition, returning the existing one if the code is taken
	GetOrCreateField(ctx context.Context, req CreateFieldRequest) (*domain.FieldDefinition, error)

	// ListDocumentTypes retrieves all document types
	ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error)
}
