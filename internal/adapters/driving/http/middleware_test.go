package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

type mockVerifier struct {
	tokens map[string]string
}

func (m *mockVerifier) VerifyActor(token string) (string, error) {
	if actor, ok := m.tokens[token]; ok {
		return actor, nil
	}
	return "", domain.ErrUnauthorized
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid bearer token", "Bearer abc123", "abc123"},
		{"bearer with extra spaces", "Bearer   token-with-spaces   ", "token-with-spaces"},
		{"lowercase bearer", "bearer token123", "token123"},
		{"empty header", "", ""},
		{"no bearer prefix", "token123", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if result := extractBearerToken(req); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, ActorFromContext(r.Context()))
	})
}

func TestActorMiddleware_Header(t *testing.T) {
	handler := NewActorMiddleware(nil).Identify(actorEcho())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ActorHeader, "  alice  ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "alice" {
		t.Errorf("expected actor alice, got %q", rr.Body.String())
	}

	// Anonymous requests are allowed without a verifier.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "" {
		t.Errorf("expected anonymous success, got %d %q", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ActorHeader, strings.Repeat("x", maxHeaderActorLength+1))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for long actor, got %d", rr.Code)
	}
}

func TestActorMiddleware_Token(t *testing.T) {
	verifier := &mockVerifier{tokens: map[string]string{"good": "bob"}}
	handler := NewActorMiddleware(verifier).Identify(actorEcho())

	tests := []struct {
		name     string
		auth     string
		actorHdr string
		expected int
		actor    string
	}{
		{"valid token", "Bearer good", "", http.StatusOK, "bob"},
		{"token wins over header", "Bearer good", "mallory", http.StatusOK, "bob"},
		{"missing token", "", "mallory", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if tt.actorHdr != "" {
				req.Header.Set(ActorHeader, tt.actorHdr)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, rr.Code)
			}
			if tt.expected == http.StatusOK && rr.Body.String() != tt.actor {
				t.Errorf("expected actor %q, got %q", tt.actor, rr.Body.String())
			}
		})
	}
}

func TestActorFromContext_Empty(t *testing.T) {
	if actor := ActorFromContext(context.Background()); actor != "" {
		t.Errorf("expected empty actor, got %q", actor)
	}
}

func TestServer_RequiresTokenWhenVerifierConfigured(t *testing.T) {
	verifier := &mockVerifier{tokens: map[string]string{"good": "bob"}}
	server := NewServer(DefaultConfig(), &mockDocumentService{}, &mockSearchService{}, &mockCatalogService{},
		verifier, nil, nil, discardLogger())

	rr := doRequest(server, "GET", "/api/v1/documents", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}

	rr = doRequest(server, "GET", "/api/v1/documents", "", map[string]string{"Authorization": "Bearer good"})
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	// Health stays open.
	rr = doRequest(server, "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 for health, got %d", rr.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/test") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware(discardLogger()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://localhost:3000"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("expected CORS origin header")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), ActorHeader) {
		t.Errorf("expected %s in allowed headers", ActorHeader)
	}

	req = httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", rr.Code)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://localhost:3000"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("expected no CORS header for disallowed origin")
	}
}
