package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.FileStore     = (*FileStore)(nil)
	_ driven.DocumentStore = (*DocumentStore)(nil)
)

// FileStore implements driven.FileStore using PostgreSQL
type FileStore struct {
	*repos
}

// Create inserts a source file reference
func (s *FileStore) Create(ctx context.Context, file *domain.SourceFile) error {
	if err := s.guard("files.create"); err != nil {
		return err
	}

	query := `
		INSERT INTO source_files (id, ref, content_type, size, etag, ocr_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.ExecContext(ctx, query,
		file.ID,
		file.Ref,
		file.ContentType,
		file.Size,
		file.ETag,
		file.OCRText,
		file.CreatedAt,
	)
	return mapError(err)
}

// Get retrieves a source file by ID
func (s *FileStore) Get(ctx context.Context, id string) (*domain.SourceFile, error) {
	query := `
		SELECT id, ref, content_type, size, etag, ocr_text, created_at
		FROM source_files
		WHERE id = $1
	`

	var f domain.SourceFile
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&f.ID,
		&f.Ref,
		&f.ContentType,
		&f.Size,
		&f.ETag,
		&f.OCRText,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	*repos
}

const documentColumns = `id, file_id, document_type, status, language, country, supplier_id, buyer_id,
	metadata, created_by, updated_by, approved_by, approved_at, created_at, updated_at`

// Create inserts a document into the partition for its creation year
func (s *DocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	if err := s.guard("documents.create"); err != nil {
		return err
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.q.ExecContext(ctx, query,
		doc.ID,
		doc.FileID,
		nullIfEmpty(doc.DocumentType),
		doc.Status,
		doc.Language,
		doc.Country,
		NullString(doc.SupplierID),
		NullString(doc.BuyerID),
		nullJSON(doc.Metadata),
		doc.CreatedBy,
		doc.UpdatedBy,
		NullString(doc.ApprovedBy),
		NullTime(doc.ApprovedAt),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return mapError(err)
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a document and locks its row for the transaction
func (s *DocumentStore) GetForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	if err := s.guard("documents.get_for_update"); err != nil {
		return nil, err
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	return scanDocument(s.q.QueryRowContext(ctx, query, id))
}

// Update writes the mutable columns of a document
func (s *DocumentStore) Update(ctx context.Context, doc *domain.Document) error {
	if err := s.guard("documents.update"); err != nil {
		return err
	}

	query := `
		UPDATE documents SET
			document_type = $2,
			status = $3,
			supplier_id = $4,
			buyer_id = $5,
			updated_by = $6,
			approved_by = $7,
			approved_at = $8,
			updated_at = $9
		WHERE id = $1
	`
	result, err := s.q.ExecContext(ctx, query,
		doc.ID,
		nullIfEmpty(doc.DocumentType),
		doc.Status,
		NullString(doc.SupplierID),
		NullString(doc.BuyerID),
		doc.UpdatedBy,
		NullString(doc.ApprovedBy),
		NullTime(doc.ApprovedAt),
		doc.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves documents newest first
func (s *DocumentStore) List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error) {
	opts = opts.Normalize()
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.q.QueryContext(ctx, query, string(opts.Status), opts.Limit, opts.Offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return docs, nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var documentType, supplierID, buyerID, approvedBy sql.NullString
	var approvedAt sql.NullTime
	var metadata []byte

	err := row.Scan(
		&doc.ID,
		&doc.FileID,
		&documentType,
		&doc.Status,
		&doc.Language,
		&doc.Country,
		&supplierID,
		&buyerID,
		&metadata,
		&doc.CreatedBy,
		&doc.UpdatedBy,
		&approvedBy,
		&approvedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	doc.DocumentType = documentType.String
	doc.SupplierID = StringPtr(supplierID)
	doc.BuyerID = StringPtr(buyerID)
	doc.ApprovedBy = StringPtr(approvedBy)
	doc.ApprovedAt = TimePtr(approvedAt)
	if len(metadata) > 0 {
		doc.Metadata = metadata
	}
	return &doc, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
