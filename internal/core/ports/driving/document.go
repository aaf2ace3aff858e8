package driving

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// SaveRawRequest is a fresh extraction of one source file.
type SaveRawRequest struct {
	// FileRef is the object store reference of the scanned file.
	FileRef string

	// DocumentType, Language and Country override auto-detection when set.
	DocumentType string
	Language     string
	Country      string

	ContentType string
	OCRText     string
	Metadata    json.RawMessage

	Payload *domain.Node
	Actor   string
}

// DocumentService runs the document lifecycle
type DocumentService interface {
	// SaveRaw stores a new document in state parsed with its raw snapshot and
	// normalized records, all in one transaction.
	SaveRaw(ctx context.Context, req SaveRawRequest) (*domain.Document, error)

	// SaveApproved stores a reviewer-corrected payload and moves the document to approved.
	SaveApproved(ctx context.Context, id string, payload *domain.Node, actor string) (*domain.Document, error)

	// StartReview moves a parsed or rejected document to in_review.
	StartReview(ctx context.Context, id string, actor string) (*domain.Document, error)

	// Reject moves an approved or in-review document to rejected. History is kept.
	Reject(ctx context.Context, id string, actor string) (*domain.Document, error)

	// Get retrieves a document with its latest raw and approved snapshots
	Get(ctx context.Context, id string) (*domain.DocumentDetail, error)

	// Records retrieves the normalized fields, tables and signatures
	Records(ctx context.Context, id string) (*domain.DocumentRecords, error)

	// History retrieves every snapshot version of one type
	History(ctx context.Context, id string, snapshotType domain.SnapshotType) ([]*domain.Snapshot, error)

	// List retrieves documents newest first
	List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error)
}
