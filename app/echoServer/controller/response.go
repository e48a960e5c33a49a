// app/echoServer/controller/response.go
package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shivamsingh4838/bookswap/util/apperr"
)

// Fail converts a service error into an HTTP error. Typed errors keep their
// message; anything else is logged with the request id and reported as 500.
func Fail(c echo.Context, log *slog.Logger, op string, err error) error {
	code := apperr.Code(err)
	if code == "" {
		if log == nil {
			log = slog.Default()
		}
		log.Error(op+" failed",
			"err", err,
			"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"path", c.Path(),
			"method", c.Request().Method,
		)
	}
	return echo.NewHTTPError(apperr.HTTPStatus(code), apperr.Message(err))
}

// BadRequest is the 400 used for undecodable bodies and params.
func BadRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ParamID parses a positive integer path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest("invalid " + name)
	}
	return id, nil
}

// Unauthenticated is returned when a protected handler runs without a user.
func Unauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
}
