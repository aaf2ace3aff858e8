package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/normalisers"
)

var seedRow = regexp.MustCompile(`\(gen_random_uuid\(\), '([a-z_]+)', '([a-z]+)', '([a-z]+)',\s*'(\[[^']*\])',\s*'\{([^}]*)\}'\)`)

type seededField struct {
	section  domain.FieldSection
	dataType domain.DataType
	labels   []domain.FieldLabel
	keys     []string
}

func seededFields(t *testing.T) map[string]seededField {
	t.Helper()
	data, err := migrationFiles.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)

	out := make(map[string]seededField)
	for _, m := range seedRow.FindAllStringSubmatch(string(data), -1) {
		var labels []domain.FieldLabel
		require.NoError(t, json.Unmarshal([]byte(m[4]), &labels), m[1])
		out[m[1]] = seededField{
			section:  domain.FieldSection(m[2]),
			dataType: domain.DataType(m[3]),
			labels:   labels,
			keys:     strings.Split(m[5], ","),
		}
	}
	return out
}

func TestMigrations_SeededFieldCodes(t *testing.T) {
	want := []string{
		"document_number", "document_date", "document_type", "currency", "due_date", "contract_number", "order_number",
		"total_amount", "subtotal_amount", "vat_amount", "vat_rate", "amount_in_words",
	}
	for _, role := range []string{"supplier", "buyer"} {
		for _, attr := range []string{"name", "tax_id", "address", "iban", "bank_name", "phone", "email"} {
			want = append(want, role+"_"+attr)
		}
	}

	seeded := seededFields(t)
	got := make([]string, 0, len(seeded))
	for code := range seeded {
		got = append(got, code)
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestMigrations_SeededFieldsAreConsistent(t *testing.T) {
	for code, f := range seededFields(t) {
		assert.True(t, domain.ValidFieldCode(code), code)
		assert.True(t, f.section.IsValid(), code)
		assert.True(t, f.dataType.IsValid(), code)

		locales := map[string]bool{}
		for _, l := range f.labels {
			locales[l.Locale] = true
		}
		assert.True(t, locales["en"] && locales["uk"], "%s needs en and uk labels", code)

		// label_keys must be what GetOrCreateField would have written
		assert.Equal(t, labelKeys(code, f.labels), f.keys, code)
	}
}

func TestMigrations_SeedCoversExtractedCodes(t *testing.T) {
	payload, err := domain.ParsePayload([]byte(`{
		"documentInfo": {
			"documentNumber": "INV-1", "documentDate": "2024-03-01", "documentType": "invoice",
			"currency": "UAH", "dueDate": "2024-03-31", "contractNumber": "C-7", "orderNumber": "O-9"
		},
		"parties": {
			"supplier": {
				"name": "Acme LLC", "taxId": "12345678", "address": "Kyiv", "iban": "UA21322313",
				"bankName": "Privat", "phone": "+380441234567", "email": "acme@example.com"
			},
			"buyer": {"name": "Globex", "taxId": "87654321", "address": "Lviv"}
		},
		"totals": {
			"totalAmount": "120.00", "subtotalAmount": "100.00", "vatAmount": "20.00",
			"vatRate": 20, "amountInWords": "one hundred twenty"
		}
	}`))
	require.NoError(t, err)

	out, err := normalisers.NewExtractor(nil).Flatten(context.Background(), payload)
	require.NoError(t, err)
	require.NotEmpty(t, out.Fields)

	seeded := seededFields(t)
	for _, f := range out.Fields {
		s, ok := seeded[f.Code]
		if assert.True(t, ok, "%s (%s) is not seeded", f.Code, f.Path) {
			assert.Equal(t, s.section, f.Section, f.Code)
		}
	}
}
