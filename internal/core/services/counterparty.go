package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// CounterpartyResolver deduplicates companies referenced by documents.
// It works on whatever CompanyStore it is handed, normally the one bound to
// the owning document's transaction.
type CounterpartyResolver struct {
	logger *slog.Logger
}

// NewCounterpartyResolver creates a resolver.
func NewCounterpartyResolver(logger *slog.Logger) *CounterpartyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CounterpartyResolver{logger: logger}
}

// ResolveOrCreate finds the company by normalized tax id, then by normalized
// name (oldest match), and creates it when neither matches. Matched companies
// take every non-empty incoming attribute.
func (r *CounterpartyResolver) ResolveOrCreate(ctx context.Context, store driven.CompanyStore, name, taxID string, attrs domain.CompanyAttributes) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	tax := domain.NormalizeTaxID(taxID)
	normName := domain.NormalizeCompanyName(name)
	if tax == "" && normName == "" {
		return nil, fmt.Errorf("%w: company needs a name or a tax id", domain.ErrInvalidInput)
	}

	if tax != "" {
		company, err := store.GetByTaxID(ctx, tax)
		switch {
		case err == nil:
			return r.merge(ctx, store, company, name, "", attrs)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("find company by tax id: %w", err)
		}
	}

	if normName != "" {
		company, err := store.FindByNormalizedName(ctx, normName)
		switch {
		case err == nil:
			// a different tax id means a different legal entity with the same name
			if company.TaxID == nil || tax == "" || *company.TaxID == tax {
				return r.merge(ctx, store, company, name, tax, attrs)
			}
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("find company by name: %w", err)
		}
	}

	now := time.Now().UTC()
	company := &domain.Company{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if tax != "" {
		company.TaxID = &tax
	}
	company.Apply(name, attrs)

	created, err := store.Create(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	if created.ID != company.ID {
		// lost a race on the tax id
		return r.merge(ctx, store, created, name, "", attrs)
	}
	r.logger.Debug("company created", "company_id", created.ID, "has_tax_id", created.TaxID != nil)
	return created, nil
}

// merge applies incoming values to an existing company and adopts tax when
// the company has none.
func (r *CounterpartyResolver) merge(ctx context.Context, store driven.CompanyStore, company *domain.Company, name, tax string, attrs domain.CompanyAttributes) (*domain.Company, error) {
	changed := company.Apply(name, attrs)
	if tax != "" && company.TaxID == nil {
		company.TaxID = &tax
		changed = true
	}
	if !changed {
		return company, nil
	}
	company.UpdatedAt = time.Now().UTC()
	if err := store.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("update company %s: %w", company.ID, err)
	}
	return company, nil
}
