package request

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/jwtx"
	"github.com/Shivamsingh4838/bookswap/model"
	requestsvc "github.com/Shivamsingh4838/bookswap/service/request"
)

type Controller struct {
	Svc requestsvc.Service
	Log *slog.Logger
}

// POST /v1/requests
// @Summary   Request a book
// @Tags      requests
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     payload  body  CreateRequestReq  true  "Request payload"
// @Success   201  {object}  model.RequestView
// @Failure   400  {object}  map[string]any
// @Failure   404  {object}  map[string]any
// @Failure   409  {object}  map[string]any "duplicate request"
// @Router    /v1/requests [post]
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	var req CreateRequestReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return controller.Fail(c, h.Log, "request create", err)
	}
	row, err := h.Svc.Create(c.Request().Context(), uid, req.BookID, req.Message)
	if err != nil {
		return controller.Fail(c, h.Log, "request create", err)
	}
	return c.JSON(http.StatusCreated, row)
}

// GET /v1/requests/sent
// @Summary   Requests I sent
// @Tags      requests
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Router    /v1/requests/sent [get]
func (h *Controller) Sent(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	rows, err := h.Svc.ListSentBy(c.Request().Context(), uid)
	if err != nil {
		return controller.Fail(c, h.Log, "request sent", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/requests/received
// @Summary   Requests for my books
// @Tags      requests
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Router    /v1/requests/received [get]
func (h *Controller) Received(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	rows, err := h.Svc.ListReceivedBy(c.Request().Context(), uid)
	if err != nil {
		return controller.Fail(c, h.Log, "request received", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// PUT /v1/requests/:id/respond
// @Summary   Accept or decline a request (book owner only)
// @Tags      requests
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id       path  int         true  "Request ID"
// @Param     payload  body  RespondReq  true  "accepted | declined"
// @Success   200  {object}  model.RequestView
// @Failure   400  {object}  map[string]any
// @Failure   403  {object}  map[string]any
// @Failure   404  {object}  map[string]any
// @Router    /v1/requests/{id}/respond [put]
func (h *Controller) Respond(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req RespondReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest("invalid body")
	}
	row, err := h.Svc.Respond(c.Request().Context(), uid, id, model.RequestStatus(req.Status), req.ResponseMessage)
	if err != nil {
		return controller.Fail(c, h.Log, "request respond", err)
	}
	return c.JSON(http.StatusOK, row)
}

// DELETE /v1/requests/:id
// @Summary   Cancel a pending request (requester only)
// @Tags      requests
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  int  true  "Request ID"
// @Success   200  {object}  map[string]any
// @Failure   400  {object}  map[string]any
// @Failure   403  {object}  map[string]any
// @Failure   404  {object}  map[string]any
// @Router    /v1/requests/{id} [delete]
func (h *Controller) Cancel(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		return controller.Fail(c, h.Log, "request cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "request cancelled"})
}
