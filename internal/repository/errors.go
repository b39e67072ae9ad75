// Package repository implements the service ports on top of gorm and Postgres.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"sabohub/internal/apperr"
)

// PostgreSQL error codes the repositories react to.
const (
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrNotNullViolation    = "23502" // not_null_violation
	PgErrCheckViolation      = "23514" // check_violation
	PgErrSerializationFail   = "40001" // serialization_failure
)

// translate maps driver errors onto apperr kinds. entity names the table-level
// thing that was being read or written.
func translate(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrUniqueViolation:
			return fmt.Errorf("%s %s: %w", entity, pgErr.ConstraintName, apperr.ErrConflict)
		case PgErrForeignKeyViolation, PgErrNotNullViolation, PgErrCheckViolation:
			return apperr.Validation("%s: %s", entity, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation
}
