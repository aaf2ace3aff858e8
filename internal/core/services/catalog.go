package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// Ensure CatalogService implements CatalogService and FieldResolver
var (
	_ driving.CatalogService = (*CatalogService)(nil)
	_ driven.FieldResolver   = (*CatalogService)(nil)
)

// DefaultCatalogCacheTTL bounds how long a cached definition is served.
const DefaultCatalogCacheTTL = 10 * time.Minute

// sharedCallTimeout bounds a collapsed lookup once it no longer follows its first caller.
const sharedCallTimeout = 30 * time.Second

// CatalogServiceConfig holds dependencies for the catalog service.
type CatalogServiceConfig struct {
	Store    driven.CatalogStore
	Cache    driven.CatalogCache // optional
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// CatalogService resolves field codes and labels through an optional cache
// and collapses concurrent lookups of the same key.
type CatalogService struct {
	store    driven.CatalogStore
	cache    driven.CatalogCache
	cacheTTL time.Duration
	group    singleflight.Group
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service. The returned value also
// serves as the normaliser's FieldResolver.
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCatalogCacheTTL
	}
	return &CatalogService{
		store:    cfg.Store,
		cache:    cfg.Cache,
		cacheTTL: ttl,
		validate: validator.New(),
		logger:   logger,
	}
}

// ResolveField returns the definition for code or ErrNotFound.
func (s *CatalogService) ResolveField(ctx context.Context, code string) (*domain.FieldDefinition, error) {
	if !domain.ValidFieldCode(code) {
		return nil, domain.ErrNotFound
	}

	if s.cache != nil {
		def, found, err := s.cache.GetField(ctx, code)
		if err != nil {
			s.logger.Warn("catalog cache read failed", "code", code, "error", err)
		} else if found {
			return def, nil
		}
	}

	v, err := s.shared(ctx, "code:"+code, func(ctx context.Context) (interface{}, error) {
		def, err := s.store.GetFieldByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetField(ctx, def, s.cacheTTL); err != nil {
				s.logger.Warn("catalog cache write failed", "code", code, "error", err)
			}
		}
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FieldDefinition), nil
}

// ResolveLabel matches a display label against the codes and labels of one section.
func (s *CatalogService) ResolveLabel(ctx context.Context, section domain.FieldSection, label string) (*domain.FieldDefinition, error) {
	folded := domain.NormalizeLabel(label)
	if folded == "" {
		return nil, domain.ErrNotFound
	}

	v, err := s.shared(ctx, "label:"+string(section)+":"+folded, func(ctx context.Context) (interface{}, error) {
		return s.store.GetFieldByLabel(ctx, section, label)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FieldDefinition), nil
}

// ListFields returns every definition.
func (s *CatalogService) ListFields(ctx context.Context) ([]*domain.FieldDefinition, error) {
	return s.store.ListFields(ctx)
}

// GetOrCreateField registers a definition; an existing code gains any new labels.
func (s *CatalogService) GetOrCreateField(ctx context.Context, req driving.CreateFieldRequest) (*domain.FieldDefinition, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !domain.ValidFieldCode(req.Code) {
		return nil, fmt.Errorf("%w: field code %q must be lowercase snake_case", domain.ErrInvalidInput, req.Code)
	}
	if !req.Section.IsValid() {
		return nil, fmt.Errorf("%w: unknown section %q", domain.ErrInvalidInput, req.Section)
	}
	dataType := req.DataType
	if dataType == "" {
		dataType = domain.DataTypeText
	}
	if !dataType.IsValid() {
		return nil, fmt.Errorf("%w: unknown data type %q", domain.ErrInvalidInput, dataType)
	}

	v, err := s.shared(ctx, fmt.Sprintf("create:%s:%s:%v", req.Code, req.Section, req.Labels), func(ctx context.Context) (interface{}, error) {
		def, err := s.store.GetOrCreateField(ctx, &domain.FieldDefinition{
			Code:     req.Code,
			Section:  req.Section,
			DataType: dataType,
			Labels:   req.Labels,
		})
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx); err != nil {
				s.logger.Warn("catalog cache invalidation failed", "error", err)
			}
		}
		s.logger.Info("field definition registered", "code", def.Code, "section", def.Section)
		return def, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("get or create field %s: %w", req.Code, err)
	}
	return v.(*domain.FieldDefinition), nil
}

// shared collapses concurrent calls for key. The call runs detached from any
// one caller's cancellation, bounded by sharedCallTimeout; each caller still
// stops waiting when its own ctx is done.
func (s *CatalogService) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// ListDocumentTypes returns every registered document type.
func (s *CatalogService) ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error) {
	return s.store.ListDocumentTypes(ctx)
}
