package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// FieldSection groups fields by where they sit on a document.
type FieldSection string

const (
	SectionHeader   FieldSection = "header"
	SectionSupplier FieldSection = "supplier"
	SectionBuyer    FieldSection = "buyer"
	SectionTotals   FieldSection = "totals"
	SectionOther    FieldSection = "other"
)

// IsValid reports whether s is a known section.
func (s FieldSection) IsValid() bool {
	switch s {
	case SectionHeader, SectionSupplier, SectionBuyer, SectionTotals, SectionOther:
		return true
	}
	return false
}

// DataType is the declared type of a catalog field. Values are still stored as text.
type DataType string

const (
	DataTypeText       DataType = "text"
	DataTypeNumber     DataType = "number"
	DataTypeMoney      DataType = "money"
	DataTypeDate       DataType = "date"
	DataTypeIdentifier DataType = "identifier"
)

// IsValid reports whether d is a known data type.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeText, DataTypeNumber, DataTypeMoney, DataTypeDate, DataTypeIdentifier:
		return true
	}
	return false
}

// FieldLabel is a localized display label of a catalog field.
type FieldLabel struct {
	Locale string `json:"locale" validate:"required,min=2,max=8"`
	Label  string `json:"label" validate:"required,max=200"`
}

// FieldDefinition is a canonical field code known to the catalog.
// Definitions are only ever added.
type FieldDefinition struct {
	ID        string       `json:"id"`
	Code      string       `json:"code"`
	Section   FieldSection `json:"section"`
	DataType  DataType     `json:"data_type"`
	Labels    []FieldLabel `json:"labels"`
	CreatedAt time.Time    `json:"created_at"`
}

// DocumentType is a catalog entry for a document kind (invoice, waybill, ...).
type DocumentType struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var fieldCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

// ValidFieldCode reports whether code is a lowercase snake_case identifier.
func ValidFieldCode(code string) bool {
	return fieldCodePattern.MatchString(code)
}

// NormalizeLabel folds a label for catalog matching: lowercase letters and digits only.
// "Tax ID", "tax_id" and "taxId" all fold to "taxid".
func NormalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
