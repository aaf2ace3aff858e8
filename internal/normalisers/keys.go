package normalisers

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// snakeCase converts payload keys such as "documentNumber", "Tax ID" or
// "VATAmount" into snake_case field codes. Non-Latin letters are kept.
func snakeCase(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	underscore := true

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && !underscore {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			underscore = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// text returns the scalar text of n, looking through embedded-label leaves.
func text(n *domain.Node) string {
	if isLeafObject(n) {
		n = n.Get("value")
	}
	if !n.IsScalar() {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// firstText returns the first non-empty text among keys of n.
func firstText(n *domain.Node, keys ...string) string {
	for _, k := range keys {
		if t := text(n.Get(k)); t != "" {
			return t
		}
	}
	return ""
}

var roleSynonyms = map[string]domain.PartyRole{
	"supplier":      domain.RoleSupplier,
	"seller":        domain.RoleSupplier,
	"vendor":        domain.RoleSupplier,
	"provider":      domain.RoleSupplier,
	"issuer":        domain.RoleSupplier,
	"постачальник":  domain.RoleSupplier,
	"продавець":     domain.RoleSupplier,
	"виконавець":    domain.RoleSupplier,
	"поставщик":     domain.RoleSupplier,
	"продавец":      domain.RoleSupplier,
	"исполнитель":   domain.RoleSupplier,
	"buyer":         domain.RoleBuyer,
	"customer":      domain.RoleBuyer,
	"purchaser":     domain.RoleBuyer,
	"client":        domain.RoleBuyer,
	"payer":         domain.RoleBuyer,
	"billto":        domain.RoleBuyer,
	"покупець":      domain.RoleBuyer,
	"замовник":      domain.RoleBuyer,
	"платник":       domain.RoleBuyer,
	"покупатель":    domain.RoleBuyer,
	"заказчик":      domain.RoleBuyer,
	"плательщик":    domain.RoleBuyer,
	"одержувач":     domain.RoleBuyer,
	"получатель":    domain.RoleBuyer,
}

// resolveRole maps a free-form party role to supplier, buyer or other.
func resolveRole(raw string) domain.PartyRole {
	if role, ok := roleSynonyms[domain.NormalizeLabel(raw)]; ok {
		return role
	}
	return domain.RoleOther
}

func roleSection(role domain.PartyRole) domain.FieldSection {
	switch role {
	case domain.RoleSupplier:
		return domain.SectionSupplier
	case domain.RoleBuyer:
		return domain.SectionBuyer
	}
	return domain.SectionOther
}

// roleCodePrefix returns the field code prefix of a party block.
func roleCodePrefix(role domain.PartyRole, raw string) string {
	switch role {
	case domain.RoleSupplier, domain.RoleBuyer:
		return string(role) + "_"
	}
	if slug := snakeCase(raw); slug != "" {
		return slug + "_"
	}
	return "party_"
}
