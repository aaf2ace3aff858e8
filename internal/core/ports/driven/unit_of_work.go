package driven

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// Repositories groups the stores bound to one connection or transaction.
type Repositories interface {
	Files() FileStore
	Documents() DocumentStore
	Snapshots() SnapshotStore
	Records() RecordStore
	Companies() CompanyStore
	Catalog() CatalogStore
}

// UnitOfWork is the storage entry point. Its own Repositories are
// non-transactional: reads work, but document, snapshot and child-row writes
// fail with domain.ErrIntegrity. Writes go through WithinTx.
type UnitOfWork interface {
	Repositories

	// WithinTx runs fn in one transaction. fn's error rolls everything back,
	// as does a cancelled context.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error

	// Search returns the read-only search queries.
	Search() SearchStore

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}

// SearchStore runs the outbound search queries.
type SearchStore interface {
	// FindTableRows returns table sections whose rows contain Key = Value.
	FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error)

	// FullText searches one scope with the given text configuration.
	FullText(ctx context.Context, scope domain.SearchScope, language domain.TextLanguage, query string, limit int) ([]*domain.FullTextHit, error)
}
