package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	store  driven.SearchStore
	logger *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(store driven.SearchStore, logger *slog.Logger) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{store: store, logger: logger}
}

// FindTableRows finds table rows containing Value under column Key
func (s *searchService) FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
	query.Key = strings.TrimSpace(query.Key)
	if query.Key == "" {
		return nil, fmt.Errorf("%w: column key is required", domain.ErrInvalidInput)
	}
	query.Limit = domain.ClampSearchLimit(query.Limit)
	return s.store.FindTableRows(ctx, query)
}

// FullText runs each requested scope concurrently and merges the hits by rank.
func (s *searchService) FullText(ctx context.Context, query domain.FullTextQuery) ([]*domain.FullTextHit, error) {
	start := time.Now()

	text := strings.TrimSpace(query.Query)
	if text == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	language, err := domain.ParseTextLanguage(string(query.Language))
	if err != nil {
		return nil, err
	}
	scopes := query.Scopes
	if len(scopes) == 0 {
		scopes = domain.AllScopes()
	}
	for _, scope := range scopes {
		if !scope.IsValid() {
			return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
		}
	}
	limit := domain.ClampSearchLimit(query.Limit)

	results := make([][]*domain.FullTextHit, len(scopes))
	g, gctx := errgroup.WithContext(ctx)
	for i, scope := range scopes {
		g.Go(func() error {
			hits, err := s.store.FullText(gctx, scope, language, text, limit)
			if err != nil {
				return fmt.Errorf("search %s: %w", scope, err)
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*domain.FullTextHit, 0)
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Rank > merged[j].Rank
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.logger.Debug("full-text search",
		"language", language,
		"scopes", len(scopes),
		"hits", len(merged),
		"took", time.Since(start),
	)
	return merged, nil
}
