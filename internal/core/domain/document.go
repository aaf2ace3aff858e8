package domain

import (
	"encoding/json"
	"time"
)

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusParsed   DocumentStatus = "parsed"
	StatusInReview DocumentStatus = "in_review"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// statusTransitions lists the allowed target states for each state.
// approved and rejected are stable but not terminal.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusParsed:   {StatusInReview, StatusApproved},
	StatusInReview: {StatusApproved, StatusRejected},
	StatusApproved: {StatusApproved, StatusRejected},
	StatusRejected: {StatusInReview, StatusApproved},
}

// IsValid reports whether s is a known status.
func (s DocumentStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Document is the anchor record of one ingested business document.
// Business values live in snapshots and child records, never here.
type Document struct {
	ID           string          `json:"id"`
	FileID       string          `json:"file_id"`
	DocumentType string          `json:"document_type,omitempty"`
	Status       DocumentStatus  `json:"status"`
	Language     string          `json:"language,omitempty"`
	Country      string          `json:"country,omitempty"`
	SupplierID   *string         `json:"supplier_id,omitempty"`
	BuyerID      *string         `json:"buyer_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedBy    string          `json:"created_by"`
	UpdatedBy    string          `json:"updated_by"`
	ApprovedBy   *string         `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SourceFile is the stored reference to the scanned file a document came from.
type SourceFile struct {
	ID          string    `json:"id"`
	Ref         string    `json:"ref"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ETag        string    `json:"etag,omitempty"`
	OCRText     string    `json:"ocr_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileInfo is what an object store reports about a file reference.
type FileInfo struct {
	ContentType string
	Size        int64
	ETag        string
}

// DocumentDetail is a document with its latest raw and approved snapshots.
type DocumentDetail struct {
	Document       *Document   `json:"document"`
	File           *SourceFile `json:"file,omitempty"`
	Supplier       *Company    `json:"supplier,omitempty"`
	Buyer          *Company    `json:"buyer,omitempty"`
	LatestRaw      *Snapshot   `json:"latest_raw,omitempty"`
	LatestApproved *Snapshot   `json:"latest_approved,omitempty"`
}

// ListDocumentsOptions filters document listings.
type ListDocumentsOptions struct {
	Status DocumentStatus
	Limit  int
	Offset int
}

// DefaultListLimit is applied when a listing does not ask for a limit.
const DefaultListLimit = 50

// MaxListLimit caps every listing.
const MaxListLimit = 500

// Normalize clamps the limit and offset into the accepted range.
func (o ListDocumentsOptions) Normalize() ListDocumentsOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
