package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentField is one normalized scalar extracted from a document.
// FieldID is nil for unknown fields; their label and value are still kept.
type DocumentField struct {
	ID            string          `json:"id"`
	DocumentID    string          `json:"document_id"`
	FieldID       *string         `json:"field_id"`
	Section       FieldSection    `json:"section"`
	Path          string          `json:"path"`
	Code          string          `json:"code"`
	RawLabel      string          `json:"raw_label"`
	RawValue      *string         `json:"raw_value"`
	ApprovedValue *string         `json:"approved_value"`
	IsCorrected   bool            `json:"is_corrected"`
	ApprovedBy    *string         `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	Page          *int            `json:"page,omitempty"`
	BBox          json.RawMessage `json:"bbox,omitempty" swaggertype:"object"`
	Position      int             `json:"position"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Known reports whether the field matched a catalog definition.
func (f *DocumentField) Known() bool {
	return f.FieldID != nil
}

// DocumentTableSection is one dynamic table of a document with column provenance.
type DocumentTableSection struct {
	ID              string         `json:"id"`
	DocumentID      string         `json:"document_id"`
	Name            string         `json:"name"`
	Position        int            `json:"position"`
	ColumnsRaw      *ColumnMapping `json:"column_mapping_raw"`
	RowsRaw         []Row          `json:"rows_raw"`
	ColumnsApproved *ColumnMapping `json:"column_mapping_approved"`
	RowsApproved    []Row          `json:"rows_approved"`
	IsCorrected     bool           `json:"is_corrected"`
	ApprovedBy      *string        `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// DocumentSignature is a detected signature or stamp block.
type DocumentSignature struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	Position    int             `json:"position"`
	Raw         json.RawMessage `json:"raw" swaggertype:"object"`
	Approved    json.RawMessage `json:"approved" swaggertype:"object"`
	IsCorrected bool            `json:"is_corrected"`
	ApprovedBy  *string         `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DocumentRecords groups all normalized child rows of a document.
type DocumentRecords struct {
	Fields     []*DocumentField        `json:"fields"`
	Tables     []*DocumentTableSection `json:"tables"`
	Signatures []*DocumentSignature    `json:"signatures"`
}

// Row is one table row keyed by normalized column key. Nil cells are JSON null.
type Row map[string]*string

// Equal compares two rows cell by cell.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !stringPtrEqual(v, ov) {
			return false
		}
	}
	return true
}

// RowsEqual compares two row lists in order.
func RowsEqual(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ColumnMapping maps normalized column keys to the header text seen on the
// document. Keys keep the order columns were first seen in.
type ColumnMapping struct {
	Keys    []string
	Headers map[string]string
}

// NewColumnMapping creates an empty mapping.
func NewColumnMapping() *ColumnMapping {
	return &ColumnMapping{Keys: []string{}, Headers: map[string]string{}}
}

// Has reports whether key is mapped.
func (m *ColumnMapping) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Headers[key]
	return ok
}

// Add maps key to header unless key is already present.
func (m *ColumnMapping) Add(key, header string) {
	if m.Has(key) {
		return
	}
	m.Keys = append(m.Keys, key)
	m.Headers[key] = header
}

// Len returns the number of columns.
func (m *ColumnMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Keys)
}

// Equal compares key order and header text.
func (m *ColumnMapping) Equal(o *ColumnMapping) bool {
	if m == nil || o == nil {
		return m == nil && o == nil
	}
	if len(m.Keys) != len(o.Keys) {
		return false
	}
	for i, k := range m.Keys {
		if o.Keys[i] != k || o.Headers[k] != m.Headers[k] {
			return false
		}
	}
	return true
}

// MarshalJSON writes the mapping as an object in column order.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	obj := NewObject()
	for _, k := range m.Keys {
		obj.Set(k, NewString(m.Headers[k]))
	}
	return obj.MarshalJSON()
}

// UnmarshalJSON reads an object, keeping its key order.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	n, err := ParsePayload(data)
	if err != nil {
		return err
	}
	if !n.IsObject() {
		return fmt.Errorf("column mapping must be an object, got %s", n.Kind)
	}
	*m = *NewColumnMapping()
	for _, member := range n.Members {
		header := ""
		if v := member.Value.Value(); v != nil {
			header = *v
		}
		m.Add(member.Key, header)
	}
	return nil
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ValuesDiffer reports a bitwise difference between a raw and an approved value.
func ValuesDiffer(raw, approved *string) bool {
	return !stringPtrEqual(raw, approved)
}
