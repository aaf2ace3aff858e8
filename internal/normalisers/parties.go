package normalisers

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// Folded attribute keys recognised in party blocks.
var (
	partyNameKeys = setOf("name", "companyname", "legalname", "fullname", "назва", "найменування", "наименование")
	partyTaxKeys  = setOf("taxid", "taxnumber", "taxcode", "vatid", "vatnumber", "tin", "inn", "ipn", "edrpou",
		"єдрпоу", "едрпоу", "егрпоу", "інн", "инн", "іпн", "okpo", "окпо", "code", "registrationnumber", "regcode")
	partyAddressKeys = setOf("address", "legaladdress", "postaladdress", "адреса", "адрес")
	partyIBANKeys    = setOf("iban", "account", "bankaccount", "accountnumber", "рахунок", "счет", "счёт")
	partyBankKeys    = setOf("bank", "bankname", "банк")
	partyPhoneKeys   = setOf("phone", "tel", "telephone", "телефон")
	partyEmailKeys   = setOf("email", "mail", "ел пошта", "почта")
)

func setOf(keys ...string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[domain.NormalizeLabel(k)] = true
	}
	return out
}

// parties accepts [{role, name, details}] lists and maps keyed by role.
func (f *flattener) parties(node *domain.Node) {
	if node.IsArray() {
		for i, item := range node.Items {
			path := fmt.Sprintf("%s[%d]", keyParties, i)
			if !item.IsObject() {
				f.walkItem(domain.SectionOther, path, "party", keyParties, item)
				continue
			}
			f.party(firstText(item, "role", "type"), path, item)
		}
		return
	}

	for _, m := range node.Members {
		path := joinPath(keyParties, m.Key)
		switch {
		case m.Value.IsArray():
			for i, item := range m.Value.Items {
				f.party(m.Key, fmt.Sprintf("%s[%d]", path, i), item)
			}
		default:
			f.party(m.Key, path, m.Value)
		}
	}
}

// party flattens one party block and records what it says about the counterparty.
func (f *flattener) party(rawRole, path string, node *domain.Node) {
	role := resolveRole(rawRole)
	section := roleSection(role)
	prefix := roleCodePrefix(role, rawRole)
	start := len(f.out.Fields)

	switch {
	case node.IsObject() && !isLeafObject(node):
		for _, m := range node.Members {
			if m.Key != "details" {
				f.walkMember(section, path, prefix, m.Key, m.Value)
				continue
			}
			detailsPath := joinPath(path, m.Key)
			switch {
			case m.Value.IsArray():
				f.detailList(section, detailsPath, prefix, m.Value)
			case m.Value.IsObject():
				f.walk(section, detailsPath, prefix, m.Value)
			default:
				f.walkMember(section, path, prefix, m.Key, m.Value)
			}
		}
	default:
		// a bare value names the party
		f.walkItem(section, path, prefix+"name", "name", node)
	}

	if role == domain.RoleOther {
		return
	}
	rec := domain.PartyRecord{Role: role, RawRole: rawRole}
	for _, field := range f.out.Fields[start:] {
		applyPartyField(&rec, prefix, field)
	}
	if rec.Name != "" || rec.TaxID != "" {
		f.out.Parties = append(f.out.Parties, rec)
	}
}

func applyPartyField(rec *domain.PartyRecord, prefix string, field domain.FieldRecord) {
	if field.Value == nil {
		return
	}
	value := strings.TrimSpace(*field.Value)
	if value == "" {
		return
	}

	suffix := strings.TrimPrefix(field.Code, prefix)
	key := domain.NormalizeLabel(suffix)
	label := domain.NormalizeLabel(field.Label)
	is := func(set map[string]bool) bool { return set[key] || set[label] }

	switch {
	case key == "role" || key == "type":
	case is(partyNameKeys):
		if rec.Name == "" {
			rec.Name = value
		}
	case is(partyTaxKeys) || strings.Contains(label, "taxid") || strings.Contains(label, "єдрпоу") || strings.Contains(label, "едрпоу"):
		if rec.TaxID == "" {
			rec.TaxID = value
		}
	case is(partyAddressKeys):
		setIfEmpty(&rec.Attributes.Address, value)
	case is(partyIBANKeys):
		setIfEmpty(&rec.Attributes.IBAN, value)
	case is(partyBankKeys):
		setIfEmpty(&rec.Attributes.BankName, value)
	case is(partyPhoneKeys):
		setIfEmpty(&rec.Attributes.Phone, value)
	case is(partyEmailKeys):
		setIfEmpty(&rec.Attributes.Email, value)
	default:
		if rec.Attributes.Extra == nil {
			rec.Attributes.Extra = make(map[string]string)
		}
		if suffix == "" {
			suffix = field.Code
		}
		if _, exists := rec.Attributes.Extra[suffix]; !exists {
			rec.Attributes.Extra[suffix] = value
		}
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
