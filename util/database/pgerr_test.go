package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "book_requests_book_requester_key",
	})
	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "book_requests_book_requester_key"))
	require.False(t, IsUniqueViolation(err, "users_email_key"))
	require.False(t, IsForeignKeyViolation(err))
	require.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	require.True(t, IsForeignKeyViolation(err))
	require.False(t, IsUniqueViolation(err, ""))
}
