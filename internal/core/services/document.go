package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// SystemActor is recorded when a caller does not identify itself.
const SystemActor = "system"

// DocumentServiceConfig holds dependencies for the document lifecycle service.
type DocumentServiceConfig struct {
	Store      driven.UnitOfWork
	Normaliser driven.ExtractionNormaliser
	Detectors  driven.TypeDetectorRegistry
	Resolver   *CounterpartyResolver
	Inspector  driven.FileInspector   // optional
	Lock       driven.DistributedLock // optional
	LockTTL    time.Duration
	LockWait   time.Duration

	RetryAttempts int
	RetryBackoff  time.Duration

	Logger *slog.Logger
}

// documentService implements the raw -> approved lifecycle. Every mutation
// runs in one transaction; same-document mutations are serialized.
type documentService struct {
	store      driven.UnitOfWork
	normaliser driven.ExtractionNormaliser
	detectors  driven.TypeDetectorRegistry
	resolver   *CounterpartyResolver
	inspector  driven.FileInspector
	locker     documentLocker
	retry      retrier
	logger     *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewCounterpartyResolver(logger)
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	wait := cfg.LockWait
	if wait <= 0 {
		wait = DefaultLockWait
	}

	return &documentService{
		store:      cfg.Store,
		normaliser: cfg.Normaliser,
		detectors:  cfg.Detectors,
		resolver:   resolver,
		inspector:  cfg.Inspector,
		locker:     documentLocker{lock: cfg.Lock, ttl: ttl, wait: wait, logger: logger},
		retry:      retrier{attempts: attempts, backoff: backoff, logger: logger},
		logger:     logger,
	}
}

// SaveRaw ingests a fresh extraction.
func (s *documentService) SaveRaw(ctx context.Context, req driving.SaveRawRequest) (*domain.Document, error) {
	fileRef := strings.TrimSpace(req.FileRef)
	if fileRef == "" {
		return nil, domain.NewValidationError("fileRef", "is required")
	}
	if req.Payload == nil {
		return nil, domain.NewValidationError("payload", "is required")
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return nil, domain.NewValidationError("metadata", "must be valid JSON")
	}
	actor := actorOrSystem(req.Actor)

	ext, err := s.normaliser.Flatten(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	detected, err := s.detectType(req, ext.Hint)
	if err != nil {
		return nil, err
	}

	file := &domain.SourceFile{Ref: fileRef, ContentType: req.ContentType, OCRText: req.OCRText}
	if s.inspector != nil {
		info, err := s.inspector.Inspect(ctx, fileRef)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewValidationError("fileRef", "object does not exist")
		case errors.Is(err, domain.ErrInvalidInput):
			return nil, domain.NewValidationError("fileRef", err.Error())
		case err != nil:
			return nil, fmt.Errorf("inspect %s: %w", fileRef, err)
		}
		if file.ContentType == "" {
			file.ContentType = info.ContentType
		}
		file.Size = info.Size
		file.ETag = info.ETag
	}

	payload, err := req.Payload.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	var doc *domain.Document
	err = s.retry.do(ctx, "save raw", func() error {
		return s.store.WithinTx(ctx, func(tx driven.Repositories) error {
			now := time.Now().UTC()

			f := *file
			f.ID = uuid.NewString()
			f.CreatedAt = now
			if err := tx.Files().Create(ctx, &f); err != nil {
				return fmt.Errorf("create file: %w", err)
			}

			if _, err := tx.Catalog().GetOrCreateDocumentType(ctx, detected.Code, detected.Name); err != nil {
				return fmt.Errorf("register document type %s: %w", detected.Code, err)
			}

			doc = &domain.Document{
				ID:           uuid.NewString(),
				FileID:       f.ID,
				DocumentType: detected.Code,
				Status:       domain.StatusParsed,
				Language:     detected.Language,
				Country:      detected.Country,
				Metadata:     req.Metadata,
				CreatedBy:    actor,
				UpdatedBy:    actor,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.resolveParties(ctx, tx.Companies(), doc, ext); err != nil {
				return err
			}
			if err := tx.Documents().Create(ctx, doc); err != nil {
				return fmt.Errorf("create document: %w", err)
			}

			snap := newSnapshot(doc.ID, domain.SnapshotRaw, payload, actor)
			if err := tx.Snapshots().Append(ctx, snap); err != nil {
				return fmt.Errorf("append raw snapshot: %w", err)
			}
			return insertRecords(ctx, tx.Records(), doc.ID, ext, now)
		})
	})
	if err != nil {
		return nil, s.failed("save raw", "", err)
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"document_type", doc.DocumentType,
		"detector", detected.Detector,
		"fields", len(ext.Fields),
		"tables", len(ext.Tables),
		"signatures", len(ext.Signatures),
	)
	return doc, nil
}

// SaveApproved stores reviewer corrections and moves the document to approved.
func (s *documentService) SaveApproved(ctx context.Context, id string, payload *domain.Node, actor string) (*domain.Document, error) {
	if payload == nil {
		return nil, domain.NewValidationError("payload", "is required")
	}
	actor = actorOrSystem(actor)

	ext, err := s.normaliser.Flatten(ctx, payload)
	if err != nil {
		return nil, err
	}
	raw, err := payload.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	var doc *domain.Document
	var version int
	err = s.mutate(ctx, "save approved", id, func(tx driven.Repositories) error {
		var err error
		doc, err = s.transition(ctx, tx, id, domain.StatusApproved)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		snap := newSnapshot(doc.ID, domain.SnapshotApproved, raw, actor)
		if err := tx.Snapshots().Append(ctx, snap); err != nil {
			return fmt.Errorf("append approved snapshot: %w", err)
		}
		version = snap.Version

		if err := applyApproval(ctx, tx.Records(), doc.ID, ext, actor, now); err != nil {
			return err
		}
		if err := s.resolveParties(ctx, tx.Companies(), doc, ext); err != nil {
			return err
		}

		doc.Status = domain.StatusApproved
		doc.ApprovedBy = &actor
		doc.ApprovedAt = &now
		doc.UpdatedBy = actor
		doc.UpdatedAt = now
		if err := tx.Documents().Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document approved", "document_id", id, "version", version, "actor", actor)
	return doc, nil
}

// StartReview moves a parsed or rejected document to in_review.
func (s *documentService) StartReview(ctx context.Context, id string, actor string) (*domain.Document, error) {
	return s.setStatus(ctx, "start review", id, domain.StatusInReview, actorOrSystem(actor))
}

// Reject marks an approved or in-review document rejected. Snapshots and
// approved values are kept; rejecting twice is a no-op.
func (s *documentService) Reject(ctx context.Context, id string, actor string) (*domain.Document, error) {
	return s.setStatus(ctx, "reject", id, domain.StatusRejected, actorOrSystem(actor))
}

func (s *documentService) setStatus(ctx context.Context, op, id string, status domain.DocumentStatus, actor string) (*domain.Document, error) {
	var doc *domain.Document
	err := s.mutate(ctx, op, id, func(tx driven.Repositories) error {
		var err error
		doc, err = s.transition(ctx, tx, id, status)
		if err != nil || doc.Status == status {
			return err
		}
		doc.Status = status
		doc.UpdatedBy = actor
		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Documents().Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document status changed", "document_id", id, "status", status, "actor", actor)
	return doc, nil
}

// transition locks the document row and checks that it may move to next.
// A document already in next is returned unchanged when next is not approved.
func (s *documentService) transition(ctx context.Context, tx driven.Repositories, id string, next domain.DocumentStatus) (*domain.Document, error) {
	doc, err := tx.Documents().GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	if doc.Status == next && next != domain.StatusApproved {
		return doc, nil
	}
	if !doc.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", doc.Status, next, domain.ErrInvalidTransition)
	}
	return doc, nil
}

// mutate runs fn in a retried transaction while holding the document's lock.
func (s *documentService) mutate(ctx context.Context, op, id string, fn func(tx driven.Repositories) error) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	err := s.locker.with(ctx, id, func() error {
		return s.retry.do(ctx, op, func() error {
			return s.store.WithinTx(ctx, fn)
		})
	})
	if err != nil {
		return s.failed(op, id, err)
	}
	return nil
}

func (s *documentService) failed(op, id string, err error) error {
	if errors.Is(err, domain.ErrIntegrity) {
		s.logger.Error("integrity violation", "op", op, "document_id", id, "error", err)
	}
	return err
}

// Get retrieves a document with its file, counterparties and latest snapshots.
func (s *documentService) Get(ctx context.Context, id string) (*domain.DocumentDetail, error) {
	doc, err := s.store.Documents().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.DocumentDetail{Document: doc}

	if detail.File, err = optional(s.store.Files().Get(ctx, doc.FileID)); err != nil {
		return nil, err
	}
	if doc.SupplierID != nil {
		if detail.Supplier, err = optional(s.store.Companies().Get(ctx, *doc.SupplierID)); err != nil {
			return nil, err
		}
	}
	if doc.BuyerID != nil {
		if detail.Buyer, err = optional(s.store.Companies().Get(ctx, *doc.BuyerID)); err != nil {
			return nil, err
		}
	}
	if detail.LatestRaw, err = optional(s.store.Snapshots().Latest(ctx, id, domain.SnapshotRaw)); err != nil {
		return nil, err
	}
	if detail.LatestApproved, err = optional(s.store.Snapshots().Latest(ctx, id, domain.SnapshotApproved)); err != nil {
		return nil, err
	}
	return detail, nil
}

// Records retrieves the normalized child rows of a document.
func (s *documentService) Records(ctx context.Context, id string) (*domain.DocumentRecords, error) {
	if _, err := s.store.Documents().Get(ctx, id); err != nil {
		return nil, err
	}
	records := s.store.Records()

	fields, err := records.ListFields(ctx, id)
	if err != nil {
		return nil, err
	}
	tables, err := records.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	signatures, err := records.ListSignatures(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentRecords{Fields: fields, Tables: tables, Signatures: signatures}, nil
}

// History retrieves every snapshot version of one type, oldest first.
func (s *documentService) History(ctx context.Context, id string, snapshotType domain.SnapshotType) ([]*domain.Snapshot, error) {
	if !snapshotType.IsValid() {
		return nil, fmt.Errorf("%w: snapshot type %q", domain.ErrInvalidInput, snapshotType)
	}
	if _, err := s.store.Documents().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Snapshots().List(ctx, id, snapshotType)
}

// List retrieves documents newest first.
func (s *documentService) List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error) {
	if opts.Status != "" && !opts.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, opts.Status)
	}
	return s.store.Documents().List(ctx, opts.Normalize())
}

// detectType applies request overrides on top of auto-detection.
func (s *documentService) detectType(req driving.SaveRawRequest, hint domain.DocumentHint) (domain.DetectedType, error) {
	var detected domain.DetectedType
	if s.detectors != nil {
		detected = s.detectors.Detect(hint)
	}
	if code := strings.TrimSpace(req.DocumentType); code != "" {
		code = strings.ToLower(code)
		if !domain.ValidFieldCode(code) {
			return detected, domain.NewValidationError("documentType", "must be a lowercase snake_case code")
		}
		detected.Code = code
		detected.Name = strings.ReplaceAll(code, "_", " ")
		detected.Detector = "request"
	}
	if detected.Code == "" {
		return detected, domain.NewValidationError("documentType", "could not be determined")
	}
	if req.Language != "" {
		detected.Language = strings.ToLower(req.Language)
	}
	if req.Country != "" {
		detected.Country = strings.ToUpper(req.Country)
	}
	return detected, nil
}

// resolveParties points the document at its supplier and buyer. A party
// missing from the extraction keeps the current reference.
func (s *documentService) resolveParties(ctx context.Context, companies driven.CompanyStore, doc *domain.Document, ext *domain.Extraction) error {
	for _, target := range []struct {
		role domain.PartyRole
		ref  **string
	}{
		{domain.RoleSupplier, &doc.SupplierID},
		{domain.RoleBuyer, &doc.BuyerID},
	} {
		party := ext.Party(target.role)
		if party == nil {
			continue
		}
		company, err := s.resolver.ResolveOrCreate(ctx, companies, party.Name, party.TaxID, party.Attributes)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", target.role, err)
		}
		id := company.ID
		*target.ref = &id
	}
	return nil
}

func newSnapshot(documentID string, snapshotType domain.SnapshotType, payload []byte, actor string) *domain.Snapshot {
	return &domain.Snapshot{
		DocumentID: documentID,
		Type:       snapshotType,
		Payload:    payload,
		Checksum:   payloadChecksum(payload),
		CreatedBy:  actor,
	}
}

// payloadChecksum is the hex BLAKE2b-256 digest of the canonical payload.
func payloadChecksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func actorOrSystem(actor string) string {
	if a := strings.TrimSpace(actor); a != "" {
		return a
	}
	return SystemActor
}

// optional turns ErrNotFound into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
