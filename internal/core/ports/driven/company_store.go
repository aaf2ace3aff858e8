package driven

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// CompanyStore persists counterparties.
type CompanyStore interface {
	// Get retrieves a company by ID.
	Get(ctx context.Context, id string) (*domain.Company, error)

	// GetByTaxID retrieves the company with the normalized tax id, or ErrNotFound.
	// Inside a transaction the row stays locked until commit.
	GetByTaxID(ctx context.Context, taxID string) (*domain.Company, error)

	// FindByNormalizedName returns the oldest company with the normalized name, or ErrNotFound.
	FindByNormalizedName(ctx context.Context, normalizedName string) (*domain.Company, error)

	// Create inserts a company. When a concurrent writer already created the
	// same tax id, the existing row is returned instead.
	Create(ctx context.Context, company *domain.Company) (*domain.Company, error)

	// Update writes name, tax id and attributes.
	Update(ctx context.Context, company *domain.Company) error
}
