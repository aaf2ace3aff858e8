package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CatalogStore = (*CatalogStore)(nil)

// CatalogStore implements driven.CatalogStore using PostgreSQL.
// label_keys holds the folded code and labels of a definition for GIN lookups.
type CatalogStore struct {
	*repos
}

const fieldDefinitionColumns = `id, code, section, data_type, labels, created_at`

// GetFieldByCode retrieves a definition by code
func (s *CatalogStore) GetFieldByCode(ctx context.Context, code string) (*domain.FieldDefinition, error) {
	query := `SELECT ` + fieldDefinitionColumns + ` FROM field_definitions WHERE code = $1`
	return scanFieldDefinition(s.q.QueryRowContext(ctx, query, code))
}

// GetFieldByLabel retrieves the definition of section whose code or any
// label folds to the same key as label.
func (s *CatalogStore) GetFieldByLabel(ctx context.Context, section domain.FieldSection, label string) (*domain.FieldDefinition, error) {
	key := domain.NormalizeLabel(label)
	if key == "" {
		return nil, domain.ErrNotFound
	}
	query := `
		SELECT ` + fieldDefinitionColumns + `
		FROM field_definitions
		WHERE section = $1 AND label_keys @> $2
		ORDER BY code
		LIMIT 1
	`
	return scanFieldDefinition(s.q.QueryRowContext(ctx, query, section, pq.Array([]string{key})))
}

// ListFields returns every definition ordered by code
func (s *CatalogStore) ListFields(ctx context.Context) ([]*domain.FieldDefinition, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+fieldDefinitionColumns+` FROM field_definitions ORDER BY code`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	defs := make([]*domain.FieldDefinition, 0)
	for rows.Next() {
		def, err := scanFieldDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return defs, nil
}

// GetOrCreateField inserts def unless its code exists, then merges any new
// labels into the stored row. The row lock makes concurrent merges safe.
func (s *CatalogStore) GetOrCreateField(ctx context.Context, def *domain.FieldDefinition) (*domain.FieldDefinition, error) {
	var stored *domain.FieldDefinition
	err := s.atomic(ctx, func(q querier) error {
		labels, err := json.Marshal(nonNilLabels(def.Labels))
		if err != nil {
			return fmt.Errorf("encode labels: %w", err)
		}
		id := def.ID
		if id == "" {
			id = uuid.NewString()
		}

		insert := `
			INSERT INTO field_definitions (id, code, section, data_type, labels, label_keys, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (code) DO NOTHING
		`
		if _, err := q.ExecContext(ctx, insert,
			id, def.Code, def.Section, def.DataType, labels, pq.Array(labelKeys(def.Code, def.Labels)),
		); err != nil {
			return mapError(err)
		}

		current, err := scanFieldDefinition(q.QueryRowContext(ctx,
			`SELECT `+fieldDefinitionColumns+` FROM field_definitions WHERE code = $1 FOR UPDATE`, def.Code))
		if err != nil {
			return err
		}

		merged, changed := mergeLabels(current.Labels, def.Labels)
		if changed {
			data, err := json.Marshal(merged)
			if err != nil {
				return fmt.Errorf("encode labels: %w", err)
			}
			update := `UPDATE field_definitions SET labels = $2, label_keys = $3 WHERE code = $1`
			if _, err := q.ExecContext(ctx, update, def.Code, data, pq.Array(labelKeys(def.Code, merged))); err != nil {
				return mapError(err)
			}
			current.Labels = merged
		}
		stored = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetOrCreateDocumentType registers code unless it exists
func (s *CatalogStore) GetOrCreateDocumentType(ctx context.Context, code, name string) (*domain.DocumentType, error) {
	if name == "" {
		name = code
	}
	query := `
		INSERT INTO document_types (code, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (code) DO UPDATE SET name = document_types.name
		RETURNING code, name, created_at
	`
	var dt domain.DocumentType
	if err := s.q.QueryRowContext(ctx, query, code, name).Scan(&dt.Code, &dt.Name, &dt.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &dt, nil
}

// ListDocumentTypes returns every document type ordered by code
func (s *CatalogStore) ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT code, name, created_at FROM document_types ORDER BY code`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	types := make([]*domain.DocumentType, 0)
	for rows.Next() {
		var dt domain.DocumentType
		if err := rows.Scan(&dt.Code, &dt.Name, &dt.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		types = append(types, &dt)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return types, nil
}

func scanFieldDefinition(row scanner) (*domain.FieldDefinition, error) {
	var def domain.FieldDefinition
	var labels []byte
	if err := row.Scan(&def.ID, &def.Code, &def.Section, &def.DataType, &labels, &def.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	def.Labels = []domain.FieldLabel{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &def.Labels); err != nil {
			return nil, fmt.Errorf("decode labels of %s: %w", def.Code, err)
		}
	}
	return &def, nil
}

// labelKeys folds the code and every label into the lookup keys.
func labelKeys(code string, labels []domain.FieldLabel) []string {
	seen := map[string]bool{}
	keys := make([]string, 0, len(labels)+1)
	add := func(s string) {
		k := domain.NormalizeLabel(s)
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	add(code)
	for _, l := range labels {
		add(l.Label)
	}
	return keys
}

// mergeLabels appends incoming labels whose (locale, label) pair is new.
func mergeLabels(existing, incoming []domain.FieldLabel) ([]domain.FieldLabel, bool) {
	merged := append([]domain.FieldLabel{}, existing...)
	changed := false
	for _, in := range incoming {
		found := false
		for _, ex := range merged {
			if ex.Locale == in.Locale && ex.Label == in.Label {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, in)
			changed = true
		}
	}
	return merged, changed
}

func nonNilLabels(labels []domain.FieldLabel) []domain.FieldLabel {
	if labels == nil {
		return []domain.FieldLabel{}
	}
	return labels
}
