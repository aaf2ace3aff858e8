package domain

import (
	"fmt"
	"strings"
)

// TextLanguage selects the full-text configuration used to parse queries and documents.
type TextLanguage string

const (
	LanguageSimple  TextLanguage = "simple"  // locale-agnostic (default)
	LanguageEnglish TextLanguage = "english" // stemmed English
	LanguageRussian TextLanguage = "russian" // stemmed Russian
)

// ParseTextLanguage maps a request parameter to a TextLanguage.
// Empty and "auto" select the locale-agnostic mode.
func ParseTextLanguage(s string) (TextLanguage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "simple":
		return LanguageSimple, nil
	case "english", "en":
		return LanguageEnglish, nil
	case "russian", "ru":
		return LanguageRussian, nil
	}
	return "", fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, s)
}

// SearchScope is a free-text column family covered by full-text search.
type SearchScope string

const (
	ScopeOCR       SearchScope = "ocr"
	ScopeFields    SearchScope = "fields"
	ScopeCompanies SearchScope = "companies"
)

// AllScopes lists every full-text scope.
func AllScopes() []SearchScope {
	return []SearchScope{ScopeOCR, ScopeFields, ScopeCompanies}
}

// IsValid reports whether s is a known scope.
func (s SearchScope) IsValid() bool {
	switch s {
	case ScopeOCR, ScopeFields, ScopeCompanies:
		return true
	}
	return false
}

// FullTextQuery is a full-text search request.
type FullTextQuery struct {
	Query    string        `json:"query"`
	Language TextLanguage  `json:"language"`
	Scopes   []SearchScope `json:"scopes,omitempty"`
	Limit    int           `json:"limit"`
}

// FullTextHit is one full-text match. CompanyID is set for the companies scope,
// DocumentID for the others.
type FullTextHit struct {
	Scope      SearchScope `json:"scope"`
	DocumentID string      `json:"document_id,omitempty"`
	CompanyID  string      `json:"company_id,omitempty"`
	Snippet    string      `json:"snippet"`
	Rank       float64     `json:"rank"`
}

// TableRowQuery finds table sections containing a row with Key = Value.
type TableRowQuery struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Approved bool   `json:"approved"`
	Limit    int    `json:"limit"`
}

// TableRowMatch is a table section with the rows that matched.
type TableRowMatch struct {
	DocumentID  string `json:"document_id"`
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
	Rows        []Row  `json:"rows"`
}

// DefaultSearchLimit is applied when a query does not ask for a limit.
const DefaultSearchLimit = 20

// MaxSearchLimit caps every search.
const MaxSearchLimit = 200

// ClampSearchLimit applies the default and maximum search limits.
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}
