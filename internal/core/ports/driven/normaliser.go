package driven

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// ExtractionNormaliser turns an extraction payload into flat records.
type ExtractionNormaliser interface {
	// Validate checks the top-level sections and returns a
	// *domain.ValidationError naming the first malformed one.
	Validate(payload *domain.Node) error

	// Flatten emits field, table and signature records plus party and type
	// hints. Fields the catalog does not know are emitted with a nil FieldID.
	Flatten(ctx context.Context, payload *domain.Node) (*domain.Extraction, error)
}

// TypeDetector maps document hints to a document type code.
type TypeDetector interface {
	// Detect returns the type code and true when the detector recognises the hint.
	Detect(hint domain.DocumentHint) (code string, ok bool)

	// Name identifies the detector in logs and detection results.
	Name() string

	// Priority returns the detector priority (higher = consulted first).
	// Priority ranges:
	//   90-100: Explicit codes supplied by the extractor
	//   50-89:  Keyword and locale heuristics
	//   10-49:  Free-form hints
	//   1-9:    Fallback
	Priority() int
}

// TypeDetectorRegistry manages document type detectors.
type TypeDetectorRegistry interface {
	// Register registers a detector.
	Register(detector TypeDetector)

	// Detect consults detectors by priority and returns the first match.
	// It never fails: the lowest priority detector always matches.
	Detect(hint domain.DocumentHint) domain.DetectedType

	// List returns registered detector names by priority (highest first).
	List() []string
}
