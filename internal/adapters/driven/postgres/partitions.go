package postgres

import (
	"context"
	"fmt"
	"time"
)

// EnsureYearPartition creates the yearly documents partition for year unless
// it exists. Rows outside every yearly partition land in documents_default,
// so a missing partition never rejects a write.
func (db *DB) EnsureYearPartition(ctx context.Context, year int) error {
	if year < 2000 || year > 9998 {
		return fmt.Errorf("partition year %d out of range", year)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS documents_y%d PARTITION OF documents FOR VALUES FROM ('%s') TO ('%s')`,
		year, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create partition documents_y%d: %w", year, mapError(err))
	}
	return nil
}

// EnsurePartitions creates the partitions for the year of now and the next one.
func (db *DB) EnsurePartitions(ctx context.Context, now time.Time) error {
	year := now.UTC().Year()
	for _, y := range []int{year, year + 1} {
		if err := db.EnsureYearPartition(ctx, y); err != nil {
			return err
		}
	}
	return nil
}
