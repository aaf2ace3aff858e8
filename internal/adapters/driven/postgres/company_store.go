package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CompanyStore = (*CompanyStore)(nil)

// CompanyStore implements driven.CompanyStore using PostgreSQL
type CompanyStore struct {
	*repos
}

const companyColumns = `id, name, normalized_name, tax_id, address, bank_name, iban, phone, email,
	attributes, created_at, updated_at`

// Get retrieves a company by ID
func (s *CompanyStore) Get(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(s.q.QueryRowContext(ctx, query, id))
}

// GetByTaxID retrieves a company by normalized tax id. Inside a transaction
// the row is locked so concurrent resolutions of the same tax id serialize.
func (s *CompanyStore) GetByTaxID(ctx context.Context, taxID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tax_id = $1`
	if s.tx {
		query += ` FOR UPDATE`
	}
	return scanCompany(s.q.QueryRowContext(ctx, query, taxID))
}

// FindByNormalizedName returns the oldest company with the normalized name
func (s *CompanyStore) FindByNormalizedName(ctx context.Context, normalizedName string) (*domain.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE normalized_name = $1
		ORDER BY created_at, id
		LIMIT 1
	`
	return scanCompany(s.q.QueryRowContext(ctx, query, normalizedName))
}

// Create inserts a company. A concurrent insert of the same tax id wins and
// its row is returned.
func (s *CompanyStore) Create(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	// created_at orders name matches, so it is never left zero
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	if company.UpdatedAt.IsZero() {
		company.UpdatedAt = company.CreatedAt
	}
	attrs, err := encodeAttributes(company.Attributes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tax_id) DO NOTHING
		RETURNING ` + companyColumns
	created, err := scanCompany(s.q.QueryRowContext(ctx, query,
		company.ID,
		company.Name,
		company.NormalizedName,
		NullString(company.TaxID),
		company.Address,
		company.BankName,
		company.IBAN,
		company.Phone,
		company.Email,
		attrs,
		company.CreatedAt,
		company.UpdatedAt,
	))
	if errors.Is(err, domain.ErrNotFound) && company.TaxID != nil {
		return s.GetByTaxID(ctx, *company.TaxID)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update writes name, tax id and attributes
func (s *CompanyStore) Update(ctx context.Context, company *domain.Company) error {
	if company.UpdatedAt.IsZero() {
		company.UpdatedAt = time.Now().UTC()
	}
	attrs, err := encodeAttributes(company.Attributes)
	if err != nil {
		return err
	}

	query := `
		UPDATE companies SET
			name = $2,
			normalized_name = $3,
			tax_id = $4,
			address = $5,
			bank_name = $6,
			iban = $7,
			phone = $8,
			email = $9,
			attributes = $10,
			updated_at = $11
		WHERE id = $1
	`
	result, err := s.q.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.NormalizedName,
		NullString(company.TaxID),
		company.Address,
		company.BankName,
		company.IBAN,
		company.Phone,
		company.Email,
		attrs,
		company.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("tax id already assigned: %w", domain.ErrAlreadyExists)
	}
	return expectOne(result, err)
}

func encodeAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode company attributes: %w", err)
	}
	return data, nil
}

func scanCompany(row scanner) (*domain.Company, error) {
	var c domain.Company
	var taxID sql.NullString
	var attrs []byte

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.NormalizedName,
		&taxID,
		&c.Address,
		&c.BankName,
		&c.IBAN,
		&c.Phone,
		&c.Email,
		&attrs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	c.TaxID = StringPtr(taxID)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &c.Attributes); err != nil {
			return nil, fmt.Errorf("decode company attributes: %w", err)
		}
	}
	if len(c.Attributes) == 0 {
		c.Attributes = nil
	}
	return &c, nil
}
