package driving

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// SearchService handles document search operations
type SearchService interface {
	// FindTableRows finds table rows containing a value under a column key
	FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error)

	// FullText searches OCR text, field text and company names
	FullText(ctx context.Context, query domain.FullTextQuery) ([]*domain.FullTextHit, error)
}
