package driven

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// FileStore persists source file references.
type FileStore interface {
	// Create inserts a file record. Only available inside a transaction.
	Create(ctx context.Context, file *domain.SourceFile) error

	// Get retrieves a file by ID.
	Get(ctx context.Context, id string) (*domain.SourceFile, error)
}

// DocumentStore persists the document anchor records.
type DocumentStore interface {
	// Create inserts a document. Only available inside a transaction.
	Create(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetForUpdate retrieves a document and locks its row until the
	// transaction ends. Only available inside a transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.Document, error)

	// Update writes status, counterparty references and audit columns.
	// Only available inside a transaction.
	Update(ctx context.Context, doc *domain.Document) error

	// List retrieves documents newest first.
	List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error)
}

// SnapshotStore is the append-only snapshot history.
type SnapshotStore interface {
	// Append stores snap as the next version for (DocumentID, Type) and fills
	// in ID, Version and CreatedAt. Version computation is serialized per
	// (document, type). Only available inside a transaction.
	Append(ctx context.Context, snap *domain.Snapshot) error

	// Latest returns the highest version, or ErrNotFound.
	Latest(ctx context.Context, documentID string, snapshotType domain.SnapshotType) (*domain.Snapshot, error)

	// List returns all versions in ascending order.
	List(ctx context.Context, documentID string, snapshotType domain.SnapshotType) ([]*domain.Snapshot, error)
}

// RecordStore persists normalized fields, tables and signatures.
// Every write is only available inside the owning document's transaction;
// this is the single guarded entry point for child rows.
type RecordStore interface {
	InsertFields(ctx context.Context, fields []*domain.DocumentField) error
	UpdateFieldApproval(ctx context.Context, field *domain.DocumentField) error
	ListFields(ctx context.Context, documentID string) ([]*domain.DocumentField, error)

	InsertTables(ctx context.Context, tables []*domain.DocumentTableSection) error
	UpdateTableApproval(ctx context.Context, table *domain.DocumentTableSection) error
	ListTables(ctx context.Context, documentID string) ([]*domain.DocumentTableSection, error)

	InsertSignatures(ctx context.Context, signatures []*domain.DocumentSignature) error
	UpdateSignatureApproval(ctx context.Context, signature *domain.DocumentSignature) error
	ListSignatures(ctx context.Context, documentID string) ([]*domain.DocumentSignature, error)
}
