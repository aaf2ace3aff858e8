package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore persists fields, table sections and signatures. Every write
// checks the transaction guard and the owning document, because the
// hash-partitioned child tables carry no foreign key to documents.
type RecordStore struct {
	*repos
}

// writeChildren runs the guard and the document check once per document.
func (s *RecordStore) writeChildren(ctx context.Context, op string, documentIDs []string, fn func() error) error {
	if err := s.guard(op); err != nil {
		return err
	}
	seen := make(map[string]bool, 1)
	for _, id := range documentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.requireDocument(ctx, id); err != nil {
			return err
		}
	}
	return fn()
}

// Fields

const fieldColumns = `id, document_id, field_id, section, path, code, raw_label, raw_value, approved_value,
	is_corrected, approved_by, approved_at, page, bbox, position, created_at`

// InsertFields inserts field rows
func (s *RecordStore) InsertFields(ctx context.Context, fields []*domain.DocumentField) error {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.DocumentID
	}
	return s.writeChildren(ctx, "records.insert_fields", ids, func() error {
		query := `
			INSERT INTO document_fields (` + fieldColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		for _, f := range fields {
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			_, err := s.q.ExecContext(ctx, query,
				f.ID,
				f.DocumentID,
				NullString(f.FieldID),
				f.Section,
				f.Path,
				f.Code,
				f.RawLabel,
				NullString(f.RawValue),
				NullString(f.ApprovedValue),
				f.IsCorrected,
				NullString(f.ApprovedBy),
				NullTime(f.ApprovedAt),
				NullInt(f.Page),
				nullJSON(f.BBox),
				f.Position,
				f.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert field %s: %w", f.Path, mapError(err))
			}
		}
		return nil
	})
}

// UpdateFieldApproval writes the approved columns of one field
func (s *RecordStore) UpdateFieldApproval(ctx context.Context, field *domain.DocumentField) error {
	if err := s.guard("records.update_field"); err != nil {
		return err
	}

	query := `
		UPDATE document_fields SET
			approved_value = $3,
			is_corrected = $4,
			approved_by = $5,
			approved_at = $6
		WHERE id = $1 AND document_id = $2
	`
	result, err := s.q.ExecContext(ctx, query,
		field.ID,
		field.DocumentID,
		NullString(field.ApprovedValue),
		field.IsCorrected,
		NullString(field.ApprovedBy),
		NullTime(field.ApprovedAt),
	)
	return expectOne(result, err)
}

// ListFields returns the fields of a document in position order
func (s *RecordStore) ListFields(ctx context.Context, documentID string) ([]*domain.DocumentField, error) {
	query := `
		SELECT ` + fieldColumns + `
		FROM document_fields
		WHERE document_id = $1
		ORDER BY position
	`
	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	fields := make([]*domain.DocumentField, 0)
	for rows.Next() {
		var f domain.DocumentField
		var fieldID, rawValue, approvedValue, approvedBy sql.NullString
		var approvedAt sql.NullTime
		var page sql.NullInt64
		var bbox []byte

		if err := rows.Scan(
			&f.ID,
			&f.DocumentID,
			&fieldID,
			&f.Section,
			&f.Path,
			&f.Code,
			&f.RawLabel,
			&rawValue,
			&approvedValue,
			&f.IsCorrected,
			&approvedBy,
			&approvedAt,
			&page,
			&bbox,
			&f.Position,
			&f.CreatedAt,
		); err != nil {
			return nil, mapError(err)
		}

		f.FieldID = StringPtr(fieldID)
		f.RawValue = StringPtr(rawValue)
		f.ApprovedValue = StringPtr(approvedValue)
		f.ApprovedBy = StringPtr(approvedBy)
		f.ApprovedAt = TimePtr(approvedAt)
		f.Page = IntPtr(page)
		if len(bbox) > 0 {
			f.BBox = bbox
		}
		fields = append(fields, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return fields, nil
}

// Tables

const tableColumns = `id, document_id, name, position, column_mapping_raw, rows_raw,
	column_mapping_approved, rows_approved, is_corrected, approved_by, approved_at, created_at`

// InsertTables inserts table sections
func (s *RecordStore) InsertTables(ctx context.Context, tables []*domain.DocumentTableSection) error {
	ids := make([]string, len(tables))
	for i, t := range tables {
		ids[i] = t.DocumentID
	}
	return s.writeChildren(ctx, "records.insert_tables", ids, func() error {
		query := `
			INSERT INTO document_table_sections (` + tableColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		for _, t := range tables {
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			columnsRaw, rowsRaw, err := encodeTable(t.ColumnsRaw, t.RowsRaw, true)
			if err != nil {
				return err
			}
			columnsApproved, rowsApproved, err := encodeTable(t.ColumnsApproved, t.RowsApproved, false)
			if err != nil {
				return err
			}

			_, err = s.q.ExecContext(ctx, query,
				t.ID,
				t.DocumentID,
				t.Name,
				t.Position,
				columnsRaw,
				rowsRaw,
				columnsApproved,
				rowsApproved,
				t.IsCorrected,
				NullString(t.ApprovedBy),
				NullTime(t.ApprovedAt),
				t.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert table %s: %w", t.Name, mapError(err))
			}
		}
		return nil
	})
}

// UpdateTableApproval writes the approved columns of one table section
func (s *RecordStore) UpdateTableApproval(ctx context.Context, table *domain.DocumentTableSection) error {
	if err := s.guard("records.update_table"); err != nil {
		return err
	}
	columns, rows, err := encodeTable(table.ColumnsApproved, table.RowsApproved, false)
	if err != nil {
		return err
	}

	query := `
		UPDATE document_table_sections SET
			column_mapping_approved = $3,
			rows_approved = $4,
			is_corrected = $5,
			approved_by = $6,
			approved_at = $7
		WHERE id = $1 AND document_id = $2
	`
	result, err := s.q.ExecContext(ctx, query,
		table.ID,
		table.DocumentID,
		columns,
		rows,
		table.IsCorrected,
		NullString(table.ApprovedBy),
		NullTime(table.ApprovedAt),
	)
	return expectOne(result, err)
}

// ListTables returns the table sections of a document in position order
func (s *RecordStore) ListTables(ctx context.Context, documentID string) ([]*domain.DocumentTableSection, error) {
	query := `
		SELECT ` + tableColumns + `
		FROM document_table_sections
		WHERE document_id = $1
		ORDER BY position
	`
	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tables := make([]*domain.DocumentTableSection, 0)
	for rows.Next() {
		var t domain.DocumentTableSection
		var columnsRaw, rowsRaw, columnsApproved, rowsApproved []byte
		var approvedBy sql.NullString
		var approvedAt sql.NullTime

		if err := rows.Scan(
			&t.ID,
			&t.DocumentID,
			&t.Name,
			&t.Position,
			&columnsRaw,
			&rowsRaw,
			&columnsApproved,
			&rowsApproved,
			&t.IsCorrected,
			&approvedBy,
			&approvedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, mapError(err)
		}

		var err error
		if t.ColumnsRaw, t.RowsRaw, err = decodeTable(columnsRaw, rowsRaw); err != nil {
			return nil, err
		}
		if t.ColumnsApproved, t.RowsApproved, err = decodeTable(columnsApproved, rowsApproved); err != nil {
			return nil, err
		}
		if t.ColumnsRaw == nil {
			t.ColumnsRaw = domain.NewColumnMapping()
		}
		if t.RowsRaw == nil {
			t.RowsRaw = []domain.Row{}
		}
		t.ApprovedBy = StringPtr(approvedBy)
		t.ApprovedAt = TimePtr(approvedAt)
		tables = append(tables, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return tables, nil
}

// encodeTable marshals a mapping and its rows. Absent approved tables are
// stored as NULL; raw tables always get JSON values.
func encodeTable(columns *domain.ColumnMapping, rows []domain.Row, required bool) (any, any, error) {
	if columns == nil && rows == nil && !required {
		return nil, nil, nil
	}
	if columns == nil {
		columns = domain.NewColumnMapping()
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	c, err := json.Marshal(columns)
	if err != nil {
		return nil, nil, fmt.Errorf("encode column mapping: %w", err)
	}
	r, err := json.Marshal(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("encode rows: %w", err)
	}
	return c, r, nil
}

func decodeTable(columns, rows []byte) (*domain.ColumnMapping, []domain.Row, error) {
	if len(columns) == 0 && len(rows) == 0 {
		return nil, nil, nil
	}
	mapping := domain.NewColumnMapping()
	if len(columns) > 0 {
		if err := json.Unmarshal(columns, mapping); err != nil {
			return nil, nil, fmt.Errorf("decode column mapping: %w", err)
		}
	}
	out := []domain.Row{}
	if len(rows) > 0 {
		if err := json.Unmarshal(rows, &out); err != nil {
			return nil, nil, fmt.Errorf("decode rows: %w", err)
		}
	}
	return mapping, out, nil
}

// Signatures

const signatureColumns = `id, document_id, position, raw, approved, is_corrected, approved_by, approved_at, created_at`

// InsertSignatures inserts signature blocks
func (s *RecordStore) InsertSignatures(ctx context.Context, signatures []*domain.DocumentSignature) error {
	ids := make([]string, len(signatures))
	for i, sig := range signatures {
		ids[i] = sig.DocumentID
	}
	return s.writeChildren(ctx, "records.insert_signatures", ids, func() error {
		query := `
			INSERT INTO document_signatures (` + signatureColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for _, sig := range signatures {
			if sig.ID == "" {
				sig.ID = uuid.NewString()
			}
			_, err := s.q.ExecContext(ctx, query,
				sig.ID,
				sig.DocumentID,
				sig.Position,
				nullJSON(sig.Raw),
				nullJSON(sig.Approved),
				sig.IsCorrected,
				NullString(sig.ApprovedBy),
				NullTime(sig.ApprovedAt),
				sig.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert signature %d: %w", sig.Position, mapError(err))
			}
		}
		return nil
	})
}

// UpdateSignatureApproval writes the approved columns of one signature
func (s *RecordStore) UpdateSignatureApproval(ctx context.Context, signature *domain.DocumentSignature) error {
	if err := s.guard("records.update_signature"); err != nil {
		return err
	}

	query := `
		UPDATE document_signatures SET
			approved = $3,
			is_corrected = $4,
			approved_by = $5,
			approved_at = $6
		WHERE id = $1 AND document_id = $2
	`
	result, err := s.q.ExecContext(ctx, query,
		signature.ID,
		signature.DocumentID,
		nullJSON(signature.Approved),
		signature.IsCorrected,
		NullString(signature.ApprovedBy),
		NullTime(signature.ApprovedAt),
	)
	return expectOne(result, err)
}

// ListSignatures returns the signatures of a document in position order
func (s *RecordStore) ListSignatures(ctx context.Context, documentID string) ([]*domain.DocumentSignature, error) {
	query := `
		SELECT ` + signatureColumns + `
		FROM document_signatures
		WHERE document_id = $1
		ORDER BY position
	`
	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	signatures := make([]*domain.DocumentSignature, 0)
	for rows.Next() {
		var sig domain.DocumentSignature
		var raw, approved []byte
		var approvedBy sql.NullString
		var approvedAt sql.NullTime

		if err := rows.Scan(
			&sig.ID,
			&sig.DocumentID,
			&sig.Position,
			&raw,
			&approved,
			&sig.IsCorrected,
			&approvedBy,
			&approvedAt,
			&sig.CreatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if len(raw) > 0 {
			sig.Raw = raw
		}
		if len(approved) > 0 {
			sig.Approved = approved
		}
		sig.ApprovedBy = StringPtr(approvedBy)
		sig.ApprovedAt = TimePtr(approvedAt)
		signatures = append(signatures, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return signatures, nil
}

// expectOne turns an update that touched no row into ErrNotFound.
func expectOne(result sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
