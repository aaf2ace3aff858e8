package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestColumnMapping_JSONKeepsOrder(t *testing.T) {
	var m ColumnMapping
	require.NoError(t, json.Unmarshal([]byte(`{"sku":"Art.#","qty":"Qty","price":"Ціна"}`), &m))

	assert.Equal(t, []string{"sku", "qty", "price"}, m.Keys)
	assert.Equal(t, "Ціна", m.Headers["price"])

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"sku":"Art.#","qty":"Qty","price":"Ціна"}`, string(out))
}

func TestColumnMapping_UnmarshalRejectsArray(t *testing.T) {
	var m ColumnMapping
	assert.Error(t, json.Unmarshal([]byte(`["sku"]`), &m))
}

func TestColumnMapping_AddAndEqual(t *testing.T) {
	a := NewColumnMapping()
	a.Add("sku", "Art.#")
	a.Add("sku", "ignored")
	a.Add("qty", "Qty")

	b := NewColumnMapping()
	b.Add("sku", "Art.#")
	b.Add("qty", "Qty")

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, "Art.#", a.Headers["sku"])
	assert.True(t, a.Equal(b))

	b.Headers["qty"] = "Quantity"
	assert.False(t, a.Equal(b))

	var nilMapping *ColumnMapping
	assert.True(t, nilMapping.Equal(nil))
	assert.False(t, nilMapping.Equal(a))
}

func TestRowsEqual(t *testing.T) {
	a := []Row{{"sku": strPtr("A1"), "qty": strPtr("2")}}
	b := []Row{{"sku": strPtr("A1"), "qty": strPtr("2")}}
	c := []Row{{"sku": strPtr("A1"), "qty": strPtr("3")}}
	d := []Row{{"sku": strPtr("A1"), "qty": nil}}

	assert.True(t, RowsEqual(a, b))
	assert.False(t, RowsEqual(a, c))
	assert.False(t, RowsEqual(a, d))
	assert.False(t, RowsEqual(a, nil))
	assert.True(t, RowsEqual(nil, []Row{}))
}

func TestValuesDiffer(t *testing.T) {
	assert.False(t, ValuesDiffer(nil, nil))
	assert.False(t, ValuesDiffer(strPtr("x"), strPtr("x")))
	assert.True(t, ValuesDiffer(strPtr("x"), strPtr("X")))
	assert.True(t, ValuesDiffer(nil, strPtr("")))
	assert.True(t, ValuesDiffer(strPtr("1.0"), strPtr("1")))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "taxid", NormalizeLabel("Tax ID"))
	assert.Equal(t, "taxid", NormalizeLabel("taxId"))
	assert.Equal(t, "taxid", NormalizeLabel("tax_id"))
	assert.Equal(t, "єдрпоу", NormalizeLabel("ЄДРПОУ:"))
}

func TestValidFieldCode(t *testing.T) {
	assert.True(t, ValidFieldCode("supplier_tax_id"))
	assert.False(t, ValidFieldCode("SupplierTaxId"))
	assert.False(t, ValidFieldCode("_x"))
	assert.False(t, ValidFieldCode(""))
}
