package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
	"github.com/custodia-labs/docledger/internal/normalisers"
)

// stubSearchStore returns canned hits per scope and records the calls.
type stubSearchStore struct {
	mu        sync.Mutex
	hits      map[domain.SearchScope][]*domain.FullTextHit
	errs      map[domain.SearchScope]error
	scopes    []domain.SearchScope
	languages []domain.TextLanguage
	rowQuery  domain.TableRowQuery
}

func (s *stubSearchStore) FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
	s.rowQuery = query
	return nil, nil
}

func (s *stubSearchStore) FullText(ctx context.Context, scope domain.SearchScope, language domain.TextLanguage, query string, limit int) ([]*domain.FullTextHit, error) {
	s.mu.Lock()
	s.scopes = append(s.scopes, scope)
	s.languages = append(s.languages, language)
	s.mu.Unlock()
	if err := s.errs[scope]; err != nil {
		return nil, err
	}
	return s.hits[scope], nil
}

func TestSearchService_FullText_MergesByRank(t *testing.T) {
	store := &stubSearchStore{hits: map[domain.SearchScope][]*domain.FullTextHit{
		domain.ScopeOCR:       {{Scope: domain.ScopeOCR, DocumentID: "d1", Rank: 0.2}},
		domain.ScopeFields:    {{Scope: domain.ScopeFields, DocumentID: "d2", Rank: 0.9}},
		domain.ScopeCompanies: {{Scope: domain.ScopeCompanies, CompanyID: "c1", Rank: 0.5}},
	}}
	svc := NewSearchService(store, nil)

	hits, err := svc.FullText(context.Background(), domain.FullTextQuery{Query: "cement", Language: "en"})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "d2", hits[0].DocumentID)
	assert.Equal(t, "c1", hits[1].CompanyID)
	assert.Equal(t, "d1", hits[2].DocumentID)

	assert.ElementsMatch(t, domain.AllScopes(), store.scopes)
	for _, lang := range store.languages {
		assert.Equal(t, domain.LanguageEnglish, lang)
	}
}

func TestSearchService_FullText_TruncatesToLimit(t *testing.T) {
	store := &stubSearchStore{hits: map[domain.SearchScope][]*domain.FullTextHit{
		domain.ScopeOCR:    {{DocumentID: "a", Rank: 3}, {DocumentID: "b", Rank: 1}},
		domain.ScopeFields: {{DocumentID: "c", Rank: 2}},
	}}
	svc := NewSearchService(store, nil)

	hits, err := svc.FullText(context.Background(), domain.FullTextQuery{
		Query:  "x",
		Scopes: []domain.SearchScope{domain.ScopeOCR, domain.ScopeFields},
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].DocumentID)
	assert.Equal(t, "c", hits[1].DocumentID)
}

func TestSearchService_FullText_Validation(t *testing.T) {
	svc := NewSearchService(&stubSearchStore{}, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		query domain.FullTextQuery
	}{
		{"empty query", domain.FullTextQuery{Query: "   "}},
		{"unknown language", domain.FullTextQuery{Query: "x", Language: "klingon"}},
		{"unknown scope", domain.FullTextQuery{Query: "x", Scopes: []domain.SearchScope{"emails"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FullText(ctx, tt.query)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSearchService_FullText_ScopeFailure(t *testing.T) {
	boom := errors.New("statement timeout")
	store := &stubSearchStore{errs: map[domain.SearchScope]error{domain.ScopeCompanies: boom}}
	svc := NewSearchService(store, nil)

	_, err := svc.FullText(context.Background(), domain.FullTextQuery{Query: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestSearchService_FindTableRows(t *testing.T) {
	store := &stubSearchStore{}
	svc := NewSearchService(store, nil)
	ctx := context.Background()

	_, err := svc.FindTableRows(ctx, domain.TableRowQuery{Key: " ", Value: "A1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.FindTableRows(ctx, domain.TableRowQuery{Key: " sku ", Value: "A1", Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, "sku", store.rowQuery.Key)
	assert.Equal(t, domain.MaxSearchLimit, store.rowQuery.Limit)
}

func TestSearchService_FindTableRows_AgainstStore(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	docs := NewDocumentService(DocumentServiceConfig{
		Store:      uow,
		Normaliser: normalisers.NewExtractor(nil),
		Detectors:  normalisers.DefaultRegistry(),
	})
	ctx := context.Background()

	doc, err := docs.SaveRaw(ctx, driving.SaveRawRequest{FileRef: "a.pdf", Payload: parsePayload(t, invoicePayload)})
	require.NoError(t, err)
	_, err = docs.SaveRaw(ctx, driving.SaveRawRequest{FileRef: "b.pdf", Payload: parsePayload(t, `{
		"documentInfo": {"documentNumber": "INV-2"},
		"tableData": {"lineItems": [{"sku": "B7", "qty": "1"}]}
	}`)})
	require.NoError(t, err)

	svc := NewSearchService(uow.Search(), nil)
	matches, err := svc.FindTableRows(ctx, domain.TableRowQuery{Key: "sku", Value: "A1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, doc.ID, matches[0].DocumentID)
	assert.Equal(t, "lineItems", matches[0].SectionName)
	require.Len(t, matches[0].Rows, 1)

	approved, err := svc.FindTableRows(ctx, domain.TableRowQuery{Key: "sku", Value: "A1", Approved: true})
	require.NoError(t, err)
	assert.Empty(t, approved, "nothing approved yet")
}
