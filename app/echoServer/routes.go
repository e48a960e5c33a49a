package echoServer

import (
	"log/slog"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/auth"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/book"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/request"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/jwtx"
	authsvc "github.com/Shivamsingh4838/bookswap/service/auth"
	"github.com/Shivamsingh4838/bookswap/util/apperr"
)

type C struct {
	Auth        *auth.Controller
	Book        *book.Controller
	Request     *request.Controller
	Verifier    authsvc.Service
	AuthLimiter *IPRateLimiter
	Log         *slog.Logger
}

func Register(e *echo.Echo, c C) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	// Public
	pub := e.Group("/v1")
	limit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if c.AuthLimiter != nil {
		limit = c.AuthLimiter.Middleware()
	}
	pub.POST("/auth/register", c.Auth.Register, limit)
	pub.POST("/auth/login", c.Auth.Login, limit)
	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	authed := e.Group("/v1", JWT(c.Verifier, log))

	authed.GET("/auth/me", c.Auth.Me)

	// Books
	authed.GET("/books/mine", c.Book.Mine)
	authed.POST("/books", c.Book.Create)
	authed.PUT("/books/:id", c.Book.Update)
	authed.DELETE("/books/:id", c.Book.Delete)

	// Requests
	authed.POST("/requests", c.Request.Create)
	authed.GET("/requests/sent", c.Request.Sent)
	authed.GET("/requests/received", c.Request.Received)
	authed.PUT("/requests/:id/respond", c.Request.Respond)
	authed.DELETE("/requests/:id", c.Request.Cancel)
}

// JWT verifies the bearer token through the auth service and stores the
// resolved user id under jwtx.ContextKey.
func JWT(v authsvc.Service, log *slog.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  jwtx.ContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return v.Verify(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if apperr.Code(err) == "" {
				log.Warn("auth rejected",
					"err", err,
					"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
					"ip", c.RealIP(),
				)
			}
			return controller.Unauthenticated()
		},
	})
}
