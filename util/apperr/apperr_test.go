package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeExtractor(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("duplicate request"))
	require.Equal(t, ErrConflict, Code(err))
	require.Equal(t, "duplicate request", Message(err))

	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
	require.Equal(t, "internal error", Message(errors.New("plain")))
	require.Equal(t, ErrCode(""), Code(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrCode]int{
		ErrValidation:      http.StatusBadRequest,
		ErrUnauthenticated: http.StatusUnauthorized,
		ErrUnauthorized:    http.StatusForbidden,
		ErrNotFound:        http.StatusNotFound,
		ErrConflict:        http.StatusConflict,
		"":                 http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, HTTPStatus(code), "code %q", code)
	}
}

func TestEmptyMessageFallsBackToCode(t *testing.T) {
	require.Equal(t, "NOT_FOUND", New(ErrNotFound, "").Error())
}
