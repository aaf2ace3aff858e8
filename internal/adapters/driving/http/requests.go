package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SaveRawRequest is the body of POST /documents
// @Description Raw extractor output for one scanned file
type SaveRawRequest struct {
	FileRef      string          `json:"file_ref" validate:"required,max=1024" example:"s3://scans/2026/inv-1.pdf"`
	DocumentType string          `json:"document_type,omitempty" validate:"omitempty,max=64" example:"invoice"`
	Language     string          `json:"language,omitempty" validate:"omitempty,max=16" example:"uk"`
	Country      string          `json:"country,omitempty" validate:"omitempty,max=8" example:"UA"`
	ContentType  string          `json:"content_type,omitempty" validate:"omitempty,max=255"`
	OCRText      string          `json:"ocr_text,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	Payload      *domain.Node    `json:"payload" validate:"required" swaggertype:"object"`
}

// ApproveRequest is the body of POST /documents/{id}/approve
// @Description Reviewer-corrected payload
type ApproveRequest struct {
	Payload *domain.Node `json:"payload" validate:"required" swaggertype:"object"`
}

// TableRowsRequest is the body of POST /search/table-rows
// @Description Table row containment query
type TableRowsRequest struct {
	Key      string `json:"key" validate:"required,max=100" example:"sku"`
	Value    string `json:"value" validate:"required,max=1000" example:"A1"`
	Approved bool   `json:"approved"`
	Limit    int    `json:"limit" validate:"min=0,max=200" example:"20"`
}

// FullTextRequest is the body of POST /search/full-text
// @Description Full-text query over OCR text, field values and company names
type FullTextRequest struct {
	Query    string               `json:"query" validate:"required,max=500" example:"cement"`
	Language string               `json:"language,omitempty" validate:"omitempty,max=16" example:"auto"`
	Scopes   []domain.SearchScope `json:"scopes,omitempty" validate:"omitempty,max=3"`
	Limit    int                  `json:"limit" validate:"min=0,max=200" example:"20"`
}

// CreateFieldBody is the body of POST /catalog/fields
// @Description Catalog field registration
type CreateFieldBody struct {
	Code     string              `json:"code" example:"delivery_address"`
	Section  domain.FieldSection `json:"section" example:"header"`
	DataType domain.DataType     `json:"data_type,omitempty" example:"text"`
	Labels   []domain.FieldLabel `json:"labels,omitempty"`
}

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidInput, maxErr.Limit)
		}
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", domain.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// describeValidation renders validator errors as "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
