package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/jwtx"
	"github.com/Shivamsingh4838/bookswap/model"
	authsvc "github.com/Shivamsingh4838/bookswap/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	Log *slog.Logger
}

// Register a new user
// @Summary      Register user
// @Description  Register a new user; email must be unique
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Failure      429  {object}  map[string]any
// @Router       /v1/auth/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq

	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return controller.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return controller.Fail(c, ct.Log, "register", err)
	}

	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, ct.Log, "register", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"token":   token,
		"user":    u.Summary(),
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/auth/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq

	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return controller.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return controller.Fail(c, ct.Log, "login", err)
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, ct.Log, "login", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"token":   token,
		"user":    u.Summary(),
	})
}

// Me
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.UserSummary
// @Failure      401  {object}  map[string]any
// @Router       /v1/auth/me [get]
func (ct *Controller) Me(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	me, err := ct.Svc.Me(c.Request().Context(), uid)
	if err != nil {
		return controller.Fail(c, ct.Log, "me", err)
	}
	return c.JSON(http.StatusOK, me)
}
