package domain

import "encoding/json"

// FieldRecord is a flattened scalar leaf of an extraction payload.
type FieldRecord struct {
	Section FieldSection
	// Path locates the leaf in the payload, e.g. "parties.supplier.taxId".
	// Raw and approved records are matched on it.
	Path  string
	Code  string
	Label string
	Value *string
	// FieldID is nil when the catalog does not know the field.
	FieldID *string
	Page    *int
	BBox    json.RawMessage
}

// TableRecord is a flattened table section. Every row has exactly the keys of Columns.
type TableRecord struct {
	Name     string
	Position int
	Columns  *ColumnMapping
	Rows     []Row
}

// SignatureRecord is one signature or stamp block, kept as JSON.
type SignatureRecord struct {
	Position int
	Payload  *Node
}

// PartyRole is the resolved role of a party block.
type PartyRole string

const (
	RoleSupplier PartyRole = "supplier"
	RoleBuyer    PartyRole = "buyer"
	RoleOther    PartyRole = "other"
)

// PartyRecord carries what a party block says about a counterparty.
type PartyRecord struct {
	Role       PartyRole
	RawRole    string
	Name       string
	TaxID      string
	Attributes CompanyAttributes
}

// DocumentHint is what the payload says about its own type.
type DocumentHint struct {
	TypeCode string
	TypeHint string
	Currency string
	Language string
}

// DetectedType is the outcome of document type detection.
type DetectedType struct {
	Code     string
	Name     string
	Detector string
	Language string
	Country  string
}

// Extraction is the normalized form of one payload.
type Extraction struct {
	Fields     []FieldRecord
	Tables     []TableRecord
	Signatures []SignatureRecord
	Parties    []PartyRecord
	Hint       DocumentHint
}

// Party returns the first party with the given role, or nil.
func (e *Extraction) Party(role PartyRole) *PartyRecord {
	for i := range e.Parties {
		if e.Parties[i].Role == role {
			return &e.Parties[i]
		}
	}
	return nil
}
