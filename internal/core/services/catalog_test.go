package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
	"github.com/custodia-labs/docledger/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

func newCatalogFixture() (*CatalogService, *mocks.MockUnitOfWork, *mocks.MockCatalogCache) {
	uow := mocks.NewMockUnitOfWork()
	cache := mocks.NewMockCatalogCache()
	svc := NewCatalogService(CatalogServiceConfig{Store: uow.Catalog(), Cache: cache})
	return svc, uow, cache
}

func TestCatalogService_ResolveField_UsesCache(t *testing.T) {
	svc, uow, cache := newCatalogFixture()
	seeded := uow.SeedField("invoice_total", domain.SectionTotals)
	ctx := context.Background()

	def, err := svc.ResolveField(ctx, "invoice_total")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, def.ID)
	assert.Equal(t, 1, cache.Misses)
	assert.Equal(t, 1, cache.Len())

	def, err = svc.ResolveField(ctx, "invoice_total")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, def.ID)
	assert.Equal(t, 1, cache.Hits)
}

func TestCatalogService_ResolveField_Unknown(t *testing.T) {
	svc, _, cache := newCatalogFixture()
	ctx := context.Background()

	_, err := svc.ResolveField(ctx, "does_not_exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, cache.Len(), "misses are not cached")

	_, err = svc.ResolveField(ctx, "Not A Code")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_ResolveField_CacheFailureFallsBackToStore(t *testing.T) {
	svc, uow, cache := newCatalogFixture()
	uow.SeedField("invoice_total", domain.SectionTotals)
	cache.GetFn = func(code string) (*domain.FieldDefinition, bool, error) {
		return nil, false, errors.New("connection refused")
	}

	def, err := svc.ResolveField(context.Background(), "invoice_total")
	require.NoError(t, err)
	assert.Equal(t, "invoice_total", def.Code)
}

// gatedCatalog blocks code lookups until release is closed.
type gatedCatalog struct {
	driven.CatalogStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedCatalog) GetFieldByCode(ctx context.Context, code string) (*domain.FieldDefinition, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.CatalogStore.GetFieldByCode(ctx, code)
}

func TestCatalogService_ResolveField_CancelledCallerDoesNotFailOthers(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	seeded := uow.SeedField("invoice_total", domain.SectionTotals)
	store := &gatedCatalog{CatalogStore: uow.Catalog(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewCatalogService(CatalogServiceConfig{Store: store})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.ResolveField(firstCtx, "invoice_total")
		firstErr <- err
	}()
	<-store.entered

	type result struct {
		def *domain.FieldDefinition
		err error
	}
	second := make(chan result, 1)
	go func() {
		def, err := svc.ResolveField(context.Background(), "invoice_total")
		second <- result{def, err}
	}()

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(store.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, seeded.ID, res.def.ID)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
}

func TestCatalogService_ResolveLabel(t *testing.T) {
	svc, uow, _ := newCatalogFixture()
	uow.SeedField("document_date", domain.SectionHeader,
		domain.FieldLabel{Locale: "uk", Label: "Дата документа"},
	)
	ctx := context.Background()

	def, err := svc.ResolveLabel(ctx, domain.SectionHeader, "  дата   ДОКУМЕНТА: ")
	require.NoError(t, err)
	assert.Equal(t, "document_date", def.Code)

	_, err = svc.ResolveLabel(ctx, domain.SectionTotals, "Дата документа")
	assert.ErrorIs(t, err, domain.ErrNotFound, "labels are scoped to a section")

	_, err = svc.ResolveLabel(ctx, domain.SectionHeader, "  ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_GetOrCreateField(t *testing.T) {
	svc, _, cache := newCatalogFixture()
	ctx := context.Background()

	created, err := svc.GetOrCreateField(ctx, driving.CreateFieldRequest{
		Code:    "delivery_address",
		Section: domain.SectionBuyer,
		Labels:  []domain.FieldLabel{{Locale: "en", Label: "Ship to"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DataTypeText, created.DataType)
	assert.Equal(t, 1, cache.Invalidations)

	again, err := svc.GetOrCreateField(ctx, driving.CreateFieldRequest{
		Code:    "delivery_address",
		Section: domain.SectionBuyer,
		Labels:  []domain.FieldLabel{{Locale: "uk", Label: "Адреса доставки"}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, again.Labels, 2)

	fields, err := svc.ListFields(ctx)
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestCatalogService_GetOrCreateField_Validation(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	tests := []struct {
		name string
		req  driving.CreateFieldRequest
	}{
		{"empty code", driving.CreateFieldRequest{Section: domain.SectionHeader}},
		{"not snake case", driving.CreateFieldRequest{Code: "Invoice Total", Section: domain.SectionTotals}},
		{"unknown section", driving.CreateFieldRequest{Code: "total", Section: "footer"}},
		{"unknown data type", driving.CreateFieldRequest{Code: "total", Section: domain.SectionTotals, DataType: "blob"}},
		{"label without locale", driving.CreateFieldRequest{Code: "total", Section: domain.SectionTotals, Labels: []domain.FieldLabel{{Label: "Total"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetOrCreateField(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
