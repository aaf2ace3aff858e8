package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchStore = (*SearchStore)(nil)

// SearchStore runs the containment and full-text queries. Both are backed by
// GIN indexes declared in the migrations.
type SearchStore struct {
	q querier
}

// regconfigs whitelists the text search configurations. The value is
// interpolated into SQL so the expression matches the expression indexes.
var regconfigs = map[domain.TextLanguage]string{
	domain.LanguageSimple:  "simple",
	domain.LanguageEnglish: "english",
	domain.LanguageRussian: "russian",
}

// FindTableRows returns table sections with a row holding Key = Value.
// The jsonb containment narrows sections through the index; matching rows
// are then picked out of each section.
func (s *SearchStore) FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
	column := "rows_raw"
	if query.Approved {
		column = "rows_approved"
	}
	probe, err := json.Marshal([]map[string]string{{query.Key: query.Value}})
	if err != nil {
		return nil, err
	}

	sqlQuery := fmt.Sprintf(`
		SELECT id, document_id, name, %[1]s
		FROM document_table_sections
		WHERE %[1]s @> $1::jsonb
		ORDER BY created_at DESC, id
		LIMIT $2
	`, column)
	rows, err := s.q.QueryContext(ctx, sqlQuery, string(probe), domain.ClampSearchLimit(query.Limit))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	matches := make([]*domain.TableRowMatch, 0)
	for rows.Next() {
		var m domain.TableRowMatch
		var data []byte
		if err := rows.Scan(&m.SectionID, &m.DocumentID, &m.SectionName, &data); err != nil {
			return nil, mapError(err)
		}
		var all []domain.Row
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("decode rows of %s: %w", m.SectionID, err)
		}
		for _, row := range all {
			if v, ok := row[query.Key]; ok && v != nil && *v == query.Value {
				m.Rows = append(m.Rows, row)
			}
		}
		if len(m.Rows) > 0 {
			matches = append(matches, &m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return matches, nil
}

// FullText searches one scope with plainto_tsquery, ranked by ts_rank.
func (s *SearchStore) FullText(ctx context.Context, scope domain.SearchScope, language domain.TextLanguage, query string, limit int) ([]*domain.FullTextHit, error) {
	cfg, ok := regconfigs[language]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, language)
	}

	var sqlQuery string
	switch scope {
	case domain.ScopeOCR:
		sqlQuery = fmt.Sprintf(`
			SELECT d.id, '', left(f.ocr_text, 200),
				ts_rank(to_tsvector('%[1]s', f.ocr_text), plainto_tsquery('%[1]s', $1)) AS rank
			FROM source_files f
			JOIN documents d ON d.file_id = f.id
			WHERE to_tsvector('%[1]s', f.ocr_text) @@ plainto_tsquery('%[1]s', $1)
			ORDER BY rank DESC, d.id
			LIMIT $2
		`, cfg)
	case domain.ScopeFields:
		sqlQuery = fmt.Sprintf(`
			SELECT document_id, '', coalesce(raw_value, ''),
				ts_rank(to_tsvector('%[1]s', coalesce(raw_value, '')), plainto_tsquery('%[1]s', $1)) AS rank
			FROM document_fields
			WHERE to_tsvector('%[1]s', coalesce(raw_value, '')) @@ plainto_tsquery('%[1]s', $1)
			ORDER BY rank DESC, document_id
			LIMIT $2
		`, cfg)
	case domain.ScopeCompanies:
		sqlQuery = fmt.Sprintf(`
			SELECT '', id, name,
				ts_rank(to_tsvector('%[1]s', name), plainto_tsquery('%[1]s', $1)) AS rank
			FROM companies
			WHERE to_tsvector('%[1]s', name) @@ plainto_tsquery('%[1]s', $1)
			ORDER BY rank DESC, id
			LIMIT $2
		`, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
	}

	rows, err := s.q.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	hits := make([]*domain.FullTextHit, 0)
	for rows.Next() {
		hit := &domain.FullTextHit{Scope: scope}
		if err := rows.Scan(&hit.DocumentID, &hit.CompanyID, &hit.Snippet, &hit.Rank); err != nil {
			return nil, mapError(err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return hits, nil
}
