package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// Mock services for testing

type mockDocumentService struct {
	saveRawFn      func(ctx context.Context, req driving.SaveRawRequest) (*domain.Document, error)
	saveApprovedFn func(ctx context.Context, id string, payload *domain.Node, actor string) (*domain.Document, error)
	startReviewFn  func(ctx context.Context, id, actor string) (*domain.Document, error)
	rejectFn       func(ctx context.Context, id, actor string) (*domain.Document, error)
	getFn          func(ctx context.Context, id string) (*domain.DocumentDetail, error)
	historyFn      func(ctx context.Context, id string, t domain.SnapshotType) ([]*domain.Snapshot, error)
	listFn         func(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error)
}

func (m *mockDocumentService) SaveRaw(ctx context.Context, req driving.SaveRawRequest) (*domain.Document, error) {
	if m.saveRawFn != nil {
		return m.saveRawFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) SaveApproved(ctx context.Context, id string, payload *domain.Node, actor string) (*domain.Document, error) {
	if m.saveApprovedFn != nil {
		return m.saveApprovedFn(ctx, id, payload, actor)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) StartReview(ctx context.Context, id, actor string) (*domain.Document, error) {
	if m.startReviewFn != nil {
		return m.startReviewFn(ctx, id, actor)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Reject(ctx context.Context, id, actor string) (*domain.Document, error) {
	if m.rejectFn != nil {
		return m.rejectFn(ctx, id, actor)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.DocumentDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Records(ctx context.Context, id string) (*domain.DocumentRecords, error) {
	return &domain.DocumentRecords{}, nil
}

func (m *mockDocumentService) History(ctx context.Context, id string, t domain.SnapshotType) ([]*domain.Snapshot, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, id, t)
	}
	return nil, nil
}

func (m *mockDocumentService) List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return []*domain.Document{}, nil
}

type mockSearchService struct {
	tableRowsFn func(ctx context.Context, q domain.TableRowQuery) ([]*domain.TableRowMatch, error)
	fullTextFn  func(ctx context.Context, q domain.FullTextQuery) ([]*domain.FullTextHit, error)
}

func (m *mockSearchService) FindTableRows(ctx context.Context, q domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
	if m.tableRowsFn != nil {
		return m.tableRowsFn(ctx, q)
	}
	return nil, nil
}

func (m *mockSearchService) FullText(ctx context.Context, q domain.FullTextQuery) ([]*domain.FullTextHit, error) {
	if m.fullTextFn != nil {
		return m.fullTextFn(ctx, q)
	}
	return nil, nil
}

type mockCatalogService struct {
	createFn func(ctx context.Context, req driving.CreateFieldRequest) (*domain.FieldDefinition, error)
}

func (m *mockCatalogService) ResolveField(ctx context.Context, code string) (*domain.FieldDefinition, error) {
	if code == "invoice_number" {
		return &domain.FieldDefinition{Code: code, Section: domain.FieldSection("documentInfo")}, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) ListFields(ctx context.Context) ([]*domain.FieldDefinition, error) {
	return []*domain.FieldDefinition{}, nil
}

func (m *mockCatalogService) GetOrCreateField(ctx context.Context, req driving.CreateFieldRequest) (*domain.FieldDefinition, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCatalogService) ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error) {
	return []*domain.DocumentType{}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func newTestServer(docs *mockDocumentService, search *mockSearchService) *Server {
	if docs == nil {
		docs = &mockDocumentService{}
	}
	if search == nil {
		search = &mockSearchService{}
	}
	cfg := DefaultConfig()
	cfg.Version = "test"
	return NewServer(cfg, docs, search, &mockCatalogService{}, nil, &mockPinger{}, nil, nil)
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestHealthHandler(t *testing.T) {
	server := &Server{version: "test"}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	var response StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       error
		lock     error
		expected int
	}{
		{"all reachable", nil, nil, http.StatusOK},
		{"database down", errors.New("connection refused"), nil, http.StatusServiceUnavailable},
		{"lock down", nil, errors.New("redis down"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(DefaultConfig(), &mockDocumentService{}, &mockSearchService{}, &mockCatalogService{},
				nil, &mockPinger{err: tt.db}, &mockPinger{err: tt.lock}, nil)

			rr := doRequest(server, "GET", "/ready", "", nil)
			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	server := &Server{version: "1.2.3"}

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()

	server.handleVersion(rr, req)

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["version"] != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %s", response["version"])
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"foo": "bar"})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}
}

func TestHandleSaveRaw(t *testing.T) {
	var got driving.SaveRawRequest
	docs := &mockDocumentService{
		saveRawFn: func(ctx context.Context, req driving.SaveRawRequest) (*domain.Document, error) {
			got = req
			return &domain.Document{ID: "doc-1", Status: domain.StatusParsed, CreatedBy: req.Actor}, nil
		},
	}
	server := newTestServer(docs, nil)

	body := `{"file_ref":"s3://scans/a.pdf","ocr_text":"invoice","payload":{"documentInfo":{"number":"7"},"items":[]}}`
	rr := doRequest(server, "POST", "/api/v1/documents", body, map[string]string{ActorHeader: "alice"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Actor != "alice" {
		t.Errorf("expected actor alice, got %q", got.Actor)
	}
	if got.FileRef != "s3://scans/a.pdf" {
		t.Errorf("unexpected file ref %q", got.FileRef)
	}
	if got.Payload == nil || !got.Payload.Has("documentInfo") {
		t.Fatal("expected payload to be decoded")
	}
	// Member order survives decoding.
	if keys := got.Payload.Keys(); len(keys) != 2 || keys[0] != "documentInfo" || keys[1] != "items" {
		t.Errorf("unexpected payload keys %v", keys)
	}
}

func TestHandleSaveRaw_BadRequests(t *testing.T) {
	server := newTestServer(nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing payload", `{"file_ref":"s3://scans/a.pdf"}`},
		{"null payload", `{"file_ref":"s3://scans/a.pdf","payload":null}`},
		{"missing file ref", `{"payload":{}}`},
		{"unknown field", `{"file_ref":"x","payload":{},"owner":"me"}`},
		{"trailing object", `{"file_ref":"x","payload":{}} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(server, "POST", "/api/v1/documents", tt.body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestHandleSaveRaw_BodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 64
	server := NewServer(cfg, &mockDocumentService{}, &mockSearchService{}, &mockCatalogService{}, nil, nil, nil, nil)

	body := fmt.Sprintf(`{"file_ref":"x","payload":{"ocr":%q}}`, strings.Repeat("a", 200))
	rr := doRequest(server, "POST", "/api/v1/documents", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expected   int
		section    string
		retryAfter bool
	}{
		{"validation", domain.NewValidationError("documentInfo", "must be an object"), http.StatusBadRequest, "documentInfo", false},
		{"invalid input", fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest, "", false},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "", false},
		{"transition", fmt.Errorf("%w: parsed -> rejected", domain.ErrInvalidTransition), http.StatusConflict, "", false},
		{"exists", domain.ErrAlreadyExists, http.StatusConflict, "", false},
		{"transient", fmt.Errorf("save: %w", domain.ErrTransient), http.StatusServiceUnavailable, "", true},
		{"integrity", domain.ErrIntegrity, http.StatusInternalServerError, "", false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &mockDocumentService{
				rejectFn: func(ctx context.Context, id, actor string) (*domain.Document, error) {
					return nil, tt.err
				},
			}
			server := newTestServer(docs, nil)

			rr := doRequest(server, "POST", "/api/v1/documents/doc-1/reject", "", nil)
			if rr.Code != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, rr.Code)
			}
			if tt.retryAfter && rr.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header")
			}
			resp := decodeError(t, rr)
			if resp.Section != tt.section {
				t.Errorf("expected section %q, got %q", tt.section, resp.Section)
			}
			if tt.expected == http.StatusInternalServerError && resp.Error != "internal server error" {
				t.Errorf("internal error details leaked: %q", resp.Error)
			}
		})
	}
}

func TestHandleApprove_PassesPathAndActor(t *testing.T) {
	var gotID, gotActor string
	docs := &mockDocumentService{
		saveApprovedFn: func(ctx context.Context, id string, payload *domain.Node, actor string) (*domain.Document, error) {
			gotID, gotActor = id, actor
			return &domain.Document{ID: id, Status: domain.StatusApproved}, nil
		},
	}
	server := newTestServer(docs, nil)

	rr := doRequest(server, "POST", "/api/v1/documents/doc-9/approve", `{"payload":{"items":[]}}`,
		map[string]string{ActorHeader: "reviewer"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotID != "doc-9" || gotActor != "reviewer" {
		t.Errorf("unexpected id/actor %q/%q", gotID, gotActor)
	}
}

func TestHandleStartReview(t *testing.T) {
	docs := &mockDocumentService{
		startReviewFn: func(ctx context.Context, id, actor string) (*domain.Document, error) {
			return &domain.Document{ID: id, Status: domain.StatusInReview}, nil
		},
	}
	server := newTestServer(docs, nil)

	rr := doRequest(server, "POST", "/api/v1/documents/doc-1/review", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var doc domain.Document
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if doc.Status != domain.StatusInReview {
		t.Errorf("expected in_review, got %s", doc.Status)
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	server := newTestServer(nil, nil)

	rr := doRequest(server, "GET", "/api/v1/documents/missing", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetHistory(t *testing.T) {
	var gotType domain.SnapshotType
	docs := &mockDocumentService{
		historyFn: func(ctx context.Context, id string, st domain.SnapshotType) ([]*domain.Snapshot, error) {
			gotType = st
			return []*domain.Snapshot{{DocumentID: id, Type: st, Version: 1}}, nil
		},
	}
	server := newTestServer(docs, nil)

	rr := doRequest(server, "GET", "/api/v1/documents/doc-1/history/approved", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotType != domain.SnapshotType("approved") {
		t.Errorf("unexpected snapshot type %q", gotType)
	}

	rr = doRequest(server, "GET", "/api/v1/documents/doc-1/history/Not%20A%20Type", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for invalid type, got %d", rr.Code)
	}
}

func TestHandleListDocuments_Query(t *testing.T) {
	var got domain.ListDocumentsOptions
	docs := &mockDocumentService{
		listFn: func(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error) {
			got = opts
			return []*domain.Document{}, nil
		},
	}
	server := newTestServer(docs, nil)

	rr := doRequest(server, "GET", "/api/v1/documents?status=approved&limit=10&offset=20", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got.Status != domain.StatusApproved || got.Limit != 10 || got.Offset != 20 {
		t.Errorf("unexpected options %+v", got)
	}

	for _, q := range []string{"status=archived", "limit=ten", "offset=-x"} {
		rr = doRequest(server, "GET", "/api/v1/documents?"+q, "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", q, rr.Code)
		}
	}
}

func TestHandleFindTableRows(t *testing.T) {
	var got domain.TableRowQuery
	search := &mockSearchService{
		tableRowsFn: func(ctx context.Context, q domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
			got = q
			return []*domain.TableRowMatch{}, nil
		},
	}
	server := newTestServer(nil, search)

	rr := doRequest(server, "POST", "/api/v1/search/table-rows", `{"key":"sku","value":"A1","approved":true}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Key != "sku" || got.Value != "A1" || !got.Approved {
		t.Errorf("unexpected query %+v", got)
	}

	rr = doRequest(server, "POST", "/api/v1/search/table-rows", `{"key":"sku","value":"A1","limit":1000}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for oversized limit, got %d", rr.Code)
	}
}

func TestHandleFullText_UnsupportedLanguage(t *testing.T) {
	search := &mockSearchService{
		fullTextFn: func(ctx context.Context, q domain.FullTextQuery) ([]*domain.FullTextHit, error) {
			_, err := domain.ParseTextLanguage(string(q.Language))
			return nil, err
		},
	}
	server := newTestServer(nil, search)

	rr := doRequest(server, "POST", "/api/v1/search/full-text", `{"query":"cement","language":"klingon"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleCatalogFields(t *testing.T) {
	catalog := &mockCatalogService{
		createFn: func(ctx context.Context, req driving.CreateFieldRequest) (*domain.FieldDefinition, error) {
			return &domain.FieldDefinition{Code: req.Code, Section: req.Section, Labels: req.Labels}, nil
		},
	}
	server := NewServer(DefaultConfig(), &mockDocumentService{}, &mockSearchService{}, catalog, nil, nil, nil, nil)

	rr := doRequest(server, "GET", "/api/v1/catalog/fields/invoice_number", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	rr = doRequest(server, "GET", "/api/v1/catalog/fields/unknown", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}

	body := `{"code":"delivery_address","section":"header","labels":[{"locale":"en","label":"Delivery address"}]}`
	rr = doRequest(server, "POST", "/api/v1/catalog/fields", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var def domain.FieldDefinition
	if err := json.NewDecoder(rr.Body).Decode(&def); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if def.Code != "delivery_address" || len(def.Labels) != 1 {
		t.Errorf("unexpected definition %+v", def)
	}
}

func TestSwaggerDocNotRegistered(t *testing.T) {
	// The docs package is not linked into this test binary.
	server := newTestServer(nil, nil)

	rr := doRequest(server, "GET", "/swagger/doc.json", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
