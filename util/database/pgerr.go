package database

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique violation, optionally on
// the named constraint (empty matches any).
func IsUniqueViolation(err error, constraint string) bool {
	return isPgCode(err, pgerrcode.UniqueViolation, constraint)
}

func IsForeignKeyViolation(err error) bool {
	return isPgCode(err, pgerrcode.ForeignKeyViolation, "")
}

func isPgCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
