package jwtx

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// ContextKey is where the JWT middleware stores the verified user id.
const ContextKey = "user_id"

func UserIDFromContext(c echo.Context) (int64, error) {
	id, ok := c.Get(ContextKey).(int64)
	if !ok || id <= 0 {
		return 0, errors.New("no user id in context")
	}
	return id, nil
}
