package normalisers

import (
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.TypeDetector = (*ExplicitCodeDetector)(nil)
	_ driven.TypeDetector = (*KeywordDetector)(nil)
	_ driven.TypeDetector = (*HintSlugDetector)(nil)
	_ driven.TypeDetector = (*FallbackDetector)(nil)
)

// ExplicitCodeDetector trusts a type code supplied by the extractor.
type ExplicitCodeDetector struct{}

func (d *ExplicitCodeDetector) Detect(hint domain.DocumentHint) (string, bool) {
	code := snakeCase(hint.TypeCode)
	if !domain.ValidFieldCode(code) {
		return "", false
	}
	return code, true
}

func (d *ExplicitCodeDetector) Name() string { return "explicit" }

func (d *ExplicitCodeDetector) Priority() int { return 100 }

type keyword struct {
	tokens []string
	code   string
}

// KeywordDetector recognises common document titles in English, Ukrainian and Russian.
type KeywordDetector struct {
	locales map[string][]keyword
	order   []string
}

// NewKeywordDetector creates a detector with the built-in keyword tables.
func NewKeywordDetector() *KeywordDetector {
	d := &KeywordDetector{
		locales: make(map[string][]keyword),
		order:   []string{"en", "uk", "ru"},
	}
	d.add("en", map[string]string{
		"invoice":                   "invoice",
		"tax invoice":               "tax_invoice",
		"proforma":                  "proforma_invoice",
		"credit note":               "credit_note",
		"waybill":                   "waybill",
		"delivery note":             "delivery_note",
		"bill of lading":            "bill_of_lading",
		"consignment note":          "consignment_note",
		"act of acceptance":         "acceptance_act",
		"certificate of completion": "acceptance_act",
	})
	d.add("uk", map[string]string{
		"рахунок":                      "invoice",
		"рахунок-фактура":              "invoice",
		"видаткова накладна":           "delivery_note",
		"товарно-транспортна накладна": "consignment_note",
		"накладна":                     "waybill",
		"акт":                          "acceptance_act",
		"акт виконаних робіт":          "acceptance_act",
		"кредит-нота":                  "credit_note",
	})
	d.add("ru", map[string]string{
		"счет":               "invoice",
		"счет-фактура":       "tax_invoice",
		"накладная":          "waybill",
		"товарная накладная": "delivery_note",
		"акт":                "acceptance_act",
	})
	return d
}

func (d *KeywordDetector) add(locale string, table map[string]string) {
	list := d.locales[locale]
	for phrase, code := range table {
		list = append(list, keyword{tokens: tokenize(phrase), code: code})
	}
	sort.Slice(list, func(i, j int) bool {
		if len(list[i].tokens) != len(list[j].tokens) {
			return len(list[i].tokens) > len(list[j].tokens)
		}
		return strings.Join(list[i].tokens, " ") < strings.Join(list[j].tokens, " ")
	})
	d.locales[locale] = list
}

func (d *KeywordDetector) Detect(hint domain.DocumentHint) (string, bool) {
	tokens := tokenize(hint.TypeHint)
	if len(tokens) == 0 {
		return "", false
	}
	language, _ := localeFor(hint)
	for _, locale := range d.localeOrder(language) {
		for _, kw := range d.locales[locale] {
			if containsRun(tokens, kw.tokens) {
				return kw.code, true
			}
		}
	}
	return "", false
}

// localeOrder puts the document's own language first.
func (d *KeywordDetector) localeOrder(language string) []string {
	if _, ok := d.locales[language]; !ok {
		return d.order
	}
	out := []string{language}
	for _, l := range d.order {
		if l != language {
			out = append(out, l)
		}
	}
	return out
}

func (d *KeywordDetector) Name() string { return "keyword" }

func (d *KeywordDetector) Priority() int { return 50 }

// HintSlugDetector turns a free-form Latin title into a type code,
// e.g. "Purchase Order #12" becomes purchase_order.
type HintSlugDetector struct{}

func (d *HintSlugDetector) Detect(hint domain.DocumentHint) (string, bool) {
	var b strings.Builder
	for _, r := range hint.TypeHint {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r), r == '№', r == '#':
		default:
			b.WriteByte(' ')
		}
	}
	code := snakeCase(b.String())
	if !domain.ValidFieldCode(code) {
		return "", false
	}
	return code, true
}

func (d *HintSlugDetector) Name() string { return "hint" }

func (d *HintSlugDetector) Priority() int { return 10 }

// FallbackDetector always answers DefaultDocumentType.
type FallbackDetector struct{}

func (d *FallbackDetector) Detect(domain.DocumentHint) (string, bool) {
	return DefaultDocumentType, true
}

func (d *FallbackDetector) Name() string { return "fallback" }

func (d *FallbackDetector) Priority() int { return 1 }

// tokenize lowercases s and splits it into letter/digit runs. ё folds to е.
func tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsRun(tokens, run []string) bool {
	for i := 0; i+len(run) <= len(tokens); i++ {
		match := true
		for j := range run {
			if tokens[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
