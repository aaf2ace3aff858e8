package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements the append-only snapshot history.
type SnapshotStore struct {
	*repos
}

// Append stores snap as the next version for its document and type.
// pg_advisory_xact_lock serializes version computation per (document, type)
// until the transaction ends; the unique constraint is the backstop.
func (s *SnapshotStore) Append(ctx context.Context, snap *domain.Snapshot) error {
	if !snap.Type.IsValid() {
		return fmt.Errorf("%w: snapshot type %q", domain.ErrInvalidInput, snap.Type)
	}
	if err := s.guard("snapshots.append"); err != nil {
		return err
	}
	if err := s.requireDocument(ctx, snap.DocumentID); err != nil {
		return err
	}

	key := hashLockName("snapshot:" + snap.DocumentID + ":" + string(snap.Type))
	if _, err := s.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
		return mapError(err)
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	query := `
		INSERT INTO document_snapshots (id, document_id, snapshot_type, version, payload, checksum, created_by, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(version), 0) + 1, $4, $5, $6, NOW()
		FROM document_snapshots
		WHERE document_id = $2 AND snapshot_type = $3
		RETURNING version, created_at
	`
	err := s.q.QueryRowContext(ctx, query,
		snap.ID,
		snap.DocumentID,
		snap.Type,
		[]byte(snap.Payload),
		snap.Checksum,
		snap.CreatedBy,
	).Scan(&snap.Version, &snap.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("snapshot version collision for %s/%s: %w", snap.DocumentID, snap.Type, domain.ErrIntegrity)
	}
	return mapError(err)
}

const snapshotColumns = `id, document_id, snapshot_type, version, payload, checksum, created_by, created_at`

// Latest returns the highest version of one snapshot type
func (s *SnapshotStore) Latest(ctx context.Context, documentID string, snapshotType domain.SnapshotType) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM document_snapshots
		WHERE document_id = $1 AND snapshot_type = $2
		ORDER BY version DESC
		LIMIT 1
	`
	return scanSnapshot(s.q.QueryRowContext(ctx, query, documentID, snapshotType))
}

// List returns every version of one snapshot type in ascending order
func (s *SnapshotStore) List(ctx context.Context, documentID string, snapshotType domain.SnapshotType) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM document_snapshots
		WHERE document_id = $1 AND snapshot_type = $2
		ORDER BY version ASC
	`
	rows, err := s.q.QueryContext(ctx, query, documentID, snapshotType)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	snaps := make([]*domain.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return snaps, nil
}

func scanSnapshot(row scanner) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var payload []byte
	err := row.Scan(
		&snap.ID,
		&snap.DocumentID,
		&snap.Type,
		&snap.Version,
		&payload,
		&snap.Checksum,
		&snap.CreatedBy,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	snap.Payload = payload
	return &snap, nil
}
