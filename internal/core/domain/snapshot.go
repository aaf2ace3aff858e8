package domain

import (
	"encoding/json"
	"regexp"
	"time"
)

// SnapshotType tags a snapshot as raw extractor output or reviewer-approved data.
type SnapshotType string

const (
	SnapshotRaw      SnapshotType = "raw"
	SnapshotApproved SnapshotType = "approved"
)

var snapshotTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// IsValid reports whether t is a usable snapshot type. The set is open:
// any short lowercase identifier is accepted.
func (t SnapshotType) IsValid() bool {
	return snapshotTypePattern.MatchString(string(t))
}

// Snapshot is an immutable full copy of a payload. Version grows by one per
// (document, type) and rows are never updated or removed.
type Snapshot struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Type       SnapshotType    `json:"snapshot_type"`
	Version    int             `json:"version"`
	Payload    json.RawMessage `json:"payload" swaggertype:"object"`
	Checksum   string          `json:"checksum"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
