package book

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/jwtx"
	imagerepo "github.com/Shivamsingh4838/bookswap/repository/image"
	booksvc "github.com/Shivamsingh4838/bookswap/service/book"
)

type Controller struct {
	Svc    booksvc.Service
	Images imagerepo.Store
	Log    *slog.Logger
}

// GET /v1/books
// @Summary  List available books
// @Tags     books
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /v1/books [get]
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.ListAvailable(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "book list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/mine
// @Summary   List my books
// @Tags      books
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Router    /v1/books/mine [get]
func (h *Controller) Mine(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	rows, err := h.Svc.ListOwnedBy(c.Request().Context(), uid)
	if err != nil {
		return controller.Fail(c, h.Log, "book mine", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
// @Summary  Book detail
// @Tags     books
// @Produce  json
// @Param    id   path  int  true  "Book ID"
// @Success  200  {object}  model.BookView
// @Failure  404  {object}  map[string]any
// @Router   /v1/books/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return err
	}
	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "book detail", err)
	}
	return c.JSON(http.StatusOK, row)
}

// POST /v1/books
// @Summary   Create a book
// @Tags      books
// @Accept    json,mpfd
// @Produce   json
// @Security  BearerAuth
// @Param     payload  body      CreateBookReq  true   "Book fields"
// @Param     image    formData  file           false  "Cover image"
// @Success   201  {object}  model.BookView
// @Failure   400  {object}  map[string]any
// @Router    /v1/books [post]
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	req, err := readCreate(c)
	if err != nil {
		return controller.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return controller.Fail(c, h.Log, "book create", err)
	}
	f := req.fields()

	image, err := h.saveImage(c)
	if err != nil {
		return controller.Fail(c, h.Log, "book image", err)
	}
	f.Image = image

	row, err := h.Svc.Create(c.Request().Context(), uid, f)
	if err != nil {
		h.release(image)
		return controller.Fail(c, h.Log, "book create", err)
	}
	return c.JSON(http.StatusCreated, row)
}

// PUT /v1/books/:id
// @Summary   Update a book (owner only)
// @Tags      books
// @Accept    json,mpfd
// @Produce   json
// @Security  BearerAuth
// @Param     id       path      int            true   "Book ID"
// @Param     payload  body      UpdateBookReq  false  "Fields to change"
// @Param     image    formData  file           false  "New cover image"
// @Success   200  {object}  model.BookView
// @Failure   403  {object}  map[string]any
// @Failure   404  {object}  map[string]any
// @Router    /v1/books/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return err
	}
	req, err := readPatch(c)
	if err != nil {
		return controller.BadRequest("invalid body")
	}
	p := req.patch()

	ctx := c.Request().Context()
	// The owner check runs in the service, but an upload from a non-owner
	// should not touch the disk at all.
	var previous string
	if hasImage(c) {
		cur, err := h.Svc.Get(ctx, id)
		if err != nil {
			return controller.Fail(c, h.Log, "book update", err)
		}
		if cur.OwnerID != uid {
			return controller.Fail(c, h.Log, "book update", booksvc.ErrNotOwner)
		}
		previous = cur.Image
	}

	image, err := h.saveImage(c)
	if err != nil {
		return controller.Fail(c, h.Log, "book image", err)
	}
	if image != "" {
		p.Image = &image
	}

	row, err := h.Svc.Update(ctx, uid, id, p)
	if err != nil {
		h.release(image)
		return controller.Fail(c, h.Log, "book update", err)
	}
	if image != "" && previous != "" && previous != image {
		h.release(previous)
	}
	return c.JSON(http.StatusOK, row)
}

// DELETE /v1/books/:id
// @Summary   Delete a book (owner only); its requests go with it
// @Tags      books
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  int  true  "Book ID"
// @Success   200  {object}  map[string]any
// @Failure   403  {object}  map[string]any
// @Failure   404  {object}  map[string]any
// @Router    /v1/books/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return controller.Unauthenticated()
	}
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return err
	}
	removed, err := h.Svc.Delete(c.Request().Context(), uid, id)
	if err != nil {
		return controller.Fail(c, h.Log, "book delete", err)
	}
	h.release(removed.Image)
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}

func (h *Controller) saveImage(c echo.Context) (string, error) {
	if h.Images == nil || !hasImage(c) {
		return "", nil
	}
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	return h.Images.Save(c.Request().Context(), fh)
}

func (h *Controller) release(name string) {
	if h.Images == nil || name == "" {
		return
	}
	if err := h.Images.Remove(name); err != nil && h.Log != nil {
		h.Log.Warn("image remove failed", "image", name, "err", err)
	}
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm) || strings.HasPrefix(ct, echo.MIMEApplicationForm)
}

func hasImage(c echo.Context) bool {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return false
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return false
	}
	return len(form.File["image"]) > 0
}

// formValues returns the fields sent in a form body. Query parameters are
// not included.
func formValues(c echo.Context) (url.Values, error) {
	r := c.Request()
	if strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return form.Value, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

func readCreate(c echo.Context) (CreateBookReq, error) {
	var req CreateBookReq
	if !isForm(c) {
		err := (&echo.DefaultBinder{}).BindBody(c, &req)
		return req, err
	}
	values, err := formValues(c)
	if err != nil {
		return req, err
	}
	req.Title = values.Get("title")
	req.Author = values.Get("author")
	req.Condition = values.Get("condition")
	req.Description = values.Get("description")
	req.Category = values.Get("category")
	return req, nil
}

// readPatch collects only the fields the client actually sent.
func readPatch(c echo.Context) (UpdateBookReq, error) {
	var req UpdateBookReq
	if !isForm(c) {
		if c.Request().ContentLength == 0 {
			return req, nil
		}
		err := (&echo.DefaultBinder{}).BindBody(c, &req)
		return req, err
	}
	values, err := formValues(c)
	if err != nil {
		return req, err
	}
	pick := func(key string) *string {
		if vs, ok := values[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	req.Title = pick("title")
	req.Author = pick("author")
	req.Condition = pick("condition")
	req.Description = pick("description")
	req.Category = pick("category")
	return req, nil
}
