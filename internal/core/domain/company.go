package domain

import (
	"strings"
	"time"
	"unicode"
)

// Company is a counterparty referenced by documents as supplier or buyer.
// At most one company exists per normalized tax id.
type Company struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	NormalizedName string            `json:"normalized_name"`
	TaxID          *string           `json:"tax_id,omitempty"`
	Address        string            `json:"address,omitempty"`
	BankName       string            `json:"bank_name,omitempty"`
	IBAN           string            `json:"iban,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Email          string            `json:"email,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CompanyAttributes are the mutable contact and bank details of a company.
type CompanyAttributes struct {
	Address  string
	BankName string
	IBAN     string
	Phone    string
	Email    string
	Extra    map[string]string
}

// Apply overwrites name and attributes with every non-empty incoming value.
// It reports whether anything changed.
func (c *Company) Apply(name string, attrs CompanyAttributes) bool {
	changed := false
	set := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}

	set(&c.Name, name)
	if norm := NormalizeCompanyName(c.Name); norm != c.NormalizedName {
		c.NormalizedName = norm
		changed = true
	}
	set(&c.Address, attrs.Address)
	set(&c.BankName, attrs.BankName)
	set(&c.IBAN, attrs.IBAN)
	set(&c.Phone, attrs.Phone)
	set(&c.Email, attrs.Email)

	for k, v := range attrs.Extra {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string)
		}
		if c.Attributes[k] != v {
			c.Attributes[k] = v
			changed = true
		}
	}
	return changed
}

// NormalizeTaxID extracts the longest contiguous run of decimal digits from
// raw, counted in runes. The first run wins a tie. It returns "" when raw has
// no digits.
func NormalizeTaxID(raw string) string {
	var best, current []rune
	for _, r := range raw {
		if unicode.IsDigit(r) {
			current = append(current, r)
			continue
		}
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}
	if len(current) > len(best) {
		best = current
	}
	return string(best)
}

// companyQuotes are stripped before comparing company names.
const companyQuotes = "\"'`«»„“”‘’‚‹›"

// NormalizeCompanyName uppercases name, drops quote characters and collapses whitespace.
func NormalizeCompanyName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(companyQuotes, r) {
			return -1
		}
		return r
	}, name)
	return strings.ToUpper(strings.Join(strings.FieldsFunc(stripped, unicode.IsSpace), " "))
}
