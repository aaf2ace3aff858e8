package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid input"`
	Section string `json:"section,omitempty" example:"documentInfo"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the database and the lock backend
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness: database unreachable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.lock != nil {
		if err := s.lock.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness: lock backend unreachable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "lock backend unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Document endpoints

// handleSaveRaw godoc
// @Summary      Store raw extraction
// @Description  Validates and normalizes an extraction, then stores the document, its raw snapshot and records in one transaction
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SaveRawRequest  true  "Raw extraction"
// @Success      201      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /documents [post]
func (s *Server) handleSaveRaw(w http.ResponseWriter, r *http.Request) {
	var req SaveRawRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	doc, err := s.docService.SaveRaw(r.Context(), driving.SaveRawRequest{
		FileRef:      req.FileRef,
		DocumentType: req.DocumentType,
		Language:     req.Language,
		Country:      req.Country,
		ContentType:  req.ContentType,
		OCRText:      req.OCRText,
		Metadata:     req.Metadata,
		Payload:      req.Payload,
		Actor:        ActorFromContext(r.Context()),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleListDocuments godoc
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(parsed, in_review, approved, rejected)
// @Param        limit   query     int     false  "Page size (max 500)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {array}   domain.Document
// @Failure      400     {object}  ErrorResponse
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := domain.ListDocumentsOptions{Status: domain.DocumentStatus(q.Get("status"))}
	if opts.Status != "" && !opts.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	docs, err := s.docService.List(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Returns the document with its counterparties and latest raw and approved snapshots
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentDetail
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	detail, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleGetRecords godoc
// @Summary      Get normalized records
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentRecords
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id}/records [get]
func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.docService.Records(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleGetHistory godoc
// @Summary      Get snapshot history
// @Description  Returns every version of one snapshot type in ascending order
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Document ID"
// @Param        type  path      string  true  "Snapshot type"  example(approved)
// @Success      200   {array}   domain.Snapshot
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /documents/{id}/history/{type} [get]
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	snapshotType := domain.SnapshotType(r.PathValue("type"))
	if !snapshotType.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid snapshot type")
		return
	}
	snaps, err := s.docService.History(r.Context(), r.PathValue("id"), snapshotType)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleApprove godoc
// @Summary      Approve document
// @Description  Stores the corrected payload as the next approved snapshot and marks corrected records
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Document ID"
// @Param        request  body      ApproveRequest  true  "Corrected payload"
// @Success      200      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /documents/{id}/approve [post]
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	doc, err := s.docService.SaveApproved(r.Context(), r.PathValue("id"), req.Payload, ActorFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleStartReview godoc
// @Summary      Start review
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /documents/{id}/review [post]
func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.StartReview(r.Context(), r.PathValue("id"), ActorFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleReject godoc
// @Summary      Reject document
// @Description  Snapshots and approved values are kept
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /documents/{id}/reject [post]
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Reject(r.Context(), r.PathValue("id"), ActorFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search endpoints

// handleFindTableRows godoc
// @Summary      Find table rows
// @Description  Finds table sections holding a row with the given column value
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      TableRowsRequest  true  "Query"
// @Success      200      {array}   domain.TableRowMatch
// @Failure      400      {object}  ErrorResponse
// @Router       /search/table-rows [post]
func (s *Server) handleFindTableRows(w http.ResponseWriter, r *http.Request) {
	var req TableRowsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	matches, err := s.searchService.FindTableRows(r.Context(), domain.TableRowQuery{
		Key:      req.Key,
		Value:    req.Value,
		Approved: req.Approved,
		Limit:    req.Limit,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleFullText godoc
// @Summary      Full-text search
// @Description  Searches OCR text, field values and company names; language is simple (auto), english or russian
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      FullTextRequest  true  "Query"
// @Success      200      {array}   domain.FullTextHit
// @Failure      400      {object}  ErrorResponse
// @Router       /search/full-text [post]
func (s *Server) handleFullText(w http.ResponseWriter, r *http.Request) {
	var req FullTextRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	hits, err := s.searchService.FullText(r.Context(), domain.FullTextQuery{
		Query:    req.Query,
		Language: domain.TextLanguage(req.Language),
		Scopes:   req.Scopes,
		Limit:    req.Limit,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// Catalog endpoints

// handleListFields godoc
// @Summary      List catalog fields
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.FieldDefinition
// @Router       /catalog/fields [get]
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	defs, err := s.catalogService.ListFields(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// handleGetField godoc
// @Summary      Get catalog field
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string  true  "Field code"
// @Success      200   {object}  domain.FieldDefinition
// @Failure      404   {object}  ErrorResponse
// @Router       /catalog/fields/{code} [get]
func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	def, err := s.catalogService.ResolveField(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleCreateField godoc
// @Summary      Register catalog field
// @Description  Creates the field or adds new labels to an existing code
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateFieldBody  true  "Field"
// @Success      200      {object}  domain.FieldDefinition
// @Failure      400      {object}  ErrorResponse
// @Router       /catalog/fields [post]
func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var req CreateFieldBody
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	def, err := s.catalogService.GetOrCreateField(r.Context(), driving.CreateFieldRequest{
		Code:     req.Code,
		Section:  req.Section,
		DataType: req.DataType,
		Labels:   req.Labels,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleListDocumentTypes godoc
// @Summary      List document types
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.DocumentType
// @Router       /catalog/document-types [get]
func (s *Server) handleListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalogService.ListDocumentTypes(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// Helper functions

// writeServiceError maps domain errors to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Reason, Section: verr.Section})
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrTransient):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	case errors.Is(err, domain.ErrIntegrity):
		s.logger.Error("integrity violation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
