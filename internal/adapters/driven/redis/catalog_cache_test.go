package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

func testDefinition() *domain.FieldDefinition {
	return &domain.FieldDefinition{
		ID:       "f-1",
		Code:     "supplier_tax_id",
		Section:  domain.SectionSupplier,
		DataType: domain.DataTypeIdentifier,
		Labels:   []domain.FieldLabel{{Locale: "uk", Label: "ЄДРПОУ"}},
	}
}

func TestCatalogCache_RoundTrip(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewCatalogCache(client)
	ctx := context.Background()

	_, found, err := cache.GetField(ctx, "supplier_tax_id")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetField(ctx, testDefinition(), time.Minute))

	def, found, err := cache.GetField(ctx, "supplier_tax_id")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testDefinition().Labels, def.Labels)
	assert.Equal(t, domain.SectionSupplier, def.Section)
}

func TestCatalogCache_EntriesExpire(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewCatalogCache(client)
	ctx := context.Background()

	require.NoError(t, cache.SetField(ctx, testDefinition(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, found, err := cache.GetField(ctx, "supplier_tax_id")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCatalogCache_InvalidateDropsEverything(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewCatalogCache(client)
	ctx := context.Background()

	require.NoError(t, cache.SetField(ctx, testDefinition(), time.Minute))
	require.NoError(t, cache.Invalidate(ctx))

	_, found, err := cache.GetField(ctx, "supplier_tax_id")
	require.NoError(t, err)
	assert.False(t, found)

	// Writes after invalidation are visible again.
	require.NoError(t, cache.SetField(ctx, testDefinition(), time.Minute))
	_, found, err = cache.GetField(ctx, "supplier_tax_id")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCatalogCache_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewCatalogCache(client)

	require.NoError(t, mr.Set(fieldKey(0, "total"), "{not json"))
	_, _, err := cache.GetField(context.Background(), "total")
	assert.Error(t, err)
}
