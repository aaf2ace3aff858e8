package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// PostgreSQL error codes the stores react to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	classConnectionException = "08"
)

// mapError translates driver errors into domain errors. Retryable failures
// become domain.ErrTransient; everything else is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == codeSerializationFailure, code == codeDeadlockDetected, code == codeLockNotAvailable:
			return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrTransient)
		case strings.HasPrefix(code, classConnectionException):
			return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrTransient)
		}
	}
	return err
}

// isUniqueViolation reports a unique constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeUniqueViolation
}
