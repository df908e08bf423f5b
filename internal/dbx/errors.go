package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	// Raised when a key such as "nope" cannot be cast to a UUID column.
	pgInvalidTextRepresentation = "22P02"
)

// ClassifyError maps unique and foreign-key violations reported by pgx or
// modernc sqlite onto common.ErrorAlreadyExists and
// common.ErrorInvalidReference. A Postgres key that cannot be cast to its
// column type matches no row and becomes common.ErrorNotFound. Other errors
// are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.Message)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", common.ErrorInvalidReference, pgErr.Message)
		case pgInvalidTextRepresentation:
			return fmt.Errorf("%w: %s", common.ErrorNotFound, pgErr.Message)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, liteErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", common.ErrorInvalidReference, liteErr.Error())
		}
	}

	return err
}

// IsMalformedKey reports whether err is Postgres rejecting a key value that
// cannot be cast to the column type.
func IsMalformedKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}
