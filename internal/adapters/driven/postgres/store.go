package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UnitOfWork = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Store implements driven.UnitOfWork on PostgreSQL. Its own repositories
// run on the pool; writes to documents, snapshots and child rows are only
// accepted from the repositories handed to WithinTx.
type Store struct {
	*repos
	db     *DB
	logger *slog.Logger
}

// NewStore creates a new Store
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repos:  &repos{db: db, q: db.DB},
		db:     db,
		logger: logger,
	}
}

// WithinTx runs fn in one transaction. Any error, including a cancelled
// context, rolls the transaction back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx driven.Repositories) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(&repos{db: s.db, q: tx, tx: true})
	})
}

// Search returns the search queries, run on the pool.
func (s *Store) Search() driven.SearchStore {
	return &SearchStore{q: s.db.DB}
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// repos binds the stores to the pool or to one transaction.
type repos struct {
	db *DB
	q  querier
	tx bool
}

func (r *repos) Files() driven.FileStore         { return &FileStore{r} }
func (r *repos) Documents() driven.DocumentStore { return &DocumentStore{r} }
func (r *repos) Snapshots() driven.SnapshotStore { return &SnapshotStore{r} }
func (r *repos) Records() driven.RecordStore     { return &RecordStore{r} }
func (r *repos) Companies() driven.CompanyStore  { return &CompanyStore{r} }
func (r *repos) Catalog() driven.CatalogStore    { return &CatalogStore{r} }

// guard refuses op outside a transaction. This is the single entry point
// that keeps document_id integrity without declarative foreign keys.
func (r *repos) guard(op string) error {
	if !r.tx {
		return fmt.Errorf("%s outside transaction: %w", op, domain.ErrIntegrity)
	}
	return nil
}

// requireDocument checks that documentID names an existing document.
func (r *repos) requireDocument(ctx context.Context, documentID string) error {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, documentID).Scan(&exists)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return fmt.Errorf("child row for missing document %s: %w", documentID, domain.ErrIntegrity)
	}
	return nil
}

// atomic runs fn in the bound transaction, or in a fresh one on the pool.
func (r *repos) atomic(ctx context.Context, fn func(q querier) error) error {
	if r.tx {
		return fn(r.q)
	}
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(tx)
	})
}
