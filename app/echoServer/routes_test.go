package echoServer_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Shivamsingh4838/bookswap/app/echoServer"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/auth"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/book"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/controller/request"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/validation"
	imagerepo "github.com/Shivamsingh4838/bookswap/repository/image"
	"github.com/Shivamsingh4838/bookswap/repository/memory"
	authsvc "github.com/Shivamsingh4838/bookswap/service/auth"
	booksvc "github.com/Shivamsingh4838/bookswap/service/book"
	"github.com/Shivamsingh4838/bookswap/service/enrich"
	requestsvc "github.com/Shivamsingh4838/bookswap/service/request"
)

type server struct {
	e         *echo.Echo
	uploadDir string
}

func newServer(t *testing.T, limiter *echoServer.IPRateLimiter) *server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New()
	enr := enrich.New(st.Users(), st.Books())
	as := authsvc.New(st.Users(), "test-secret", time.Hour)

	dir := t.TempDir()
	images, err := imagerepo.New(dir, 1<<20)
	require.NoError(t, err)

	e := echo.New()
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e, log)
	echoServer.Register(e, echoServer.C{
		Auth:        &auth.Controller{Svc: as, Log: log},
		Book:        &book.Controller{Svc: booksvc.New(st.Books(), enr), Images: images, Log: log},
		Request:     &request.Controller{Svc: requestsvc.New(st.Requests(), st.Books(), enr), Log: log},
		Verifier:    as,
		AuthLimiter: limiter,
		Log:         log,
	})
	return &server{e: e, uploadDir: dir}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *server) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func (s *server) register(t *testing.T, name, email string) string {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tok, _ := out["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func (s *server) createBook(t *testing.T, token, title string) int64 {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/v1/books", token, map[string]any{
		"title": title, "author": "Someone", "condition": "Good",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(out["id"].(float64))
}

func dataLen(t *testing.T, out map[string]any) int {
	t.Helper()
	rows, ok := out["data"].([]any)
	require.True(t, ok, "data: %v", out)
	return len(rows)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t, nil)
	tok := s.register(t, "Ann", "ann@example.com")

	rec, out := s.do(t, http.MethodGet, "/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ann@example.com", out["email"])

	rec, out = s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"name": "Ann2", "email": "ANN@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "email already registered", out["message"])

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email": "ann@example.com", "password": "wrong-pass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email": "ann@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, out["token"])

	rec, out = s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"name": "X", "email": "x@example.com", "password": "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "password must be at least 6 characters", out["message"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/v1/books/mine", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/requests", "garbage", map[string]any{"book_id": 1})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// public catalog
	rec, out := s.do(t, http.MethodGet, "/v1/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, dataLen(t, out))
}

func TestExchangeLifecycle(t *testing.T) {
	s := newServer(t, nil)
	ann := s.register(t, "Ann", "ann@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	bookID := s.createBook(t, ann, "Dune")

	rec, out := s.do(t, http.MethodGet, fmt.Sprintf("/v1/books/%d", bookID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ann", out["owner"].(map[string]any)["name"])

	// owner cannot request own book
	rec, _ = s.do(t, http.MethodPost, "/v1/requests", ann, map[string]any{"book_id": bookID})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/v1/requests", bob, map[string]any{"book_id": bookID, "message": "please"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reqID := int64(out["id"].(float64))
	require.Equal(t, "pending", out["status"])

	rec, out = s.do(t, http.MethodPost, "/v1/requests", bob, map[string]any{"book_id": bookID})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate request", out["message"])

	rec, out = s.do(t, http.MethodGet, "/v1/requests/received", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, dataLen(t, out))

	rec, out = s.do(t, http.MethodGet, "/v1/requests/sent", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, dataLen(t, out))

	// only the owner responds
	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/v1/requests/%d/respond", reqID), bob, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/v1/requests/%d/respond", reqID), ann, map[string]any{"status": "maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = s.do(t, http.MethodPut, fmt.Sprintf("/v1/requests/%d/respond", reqID), ann, map[string]any{
		"status": "accepted", "response_message": "enjoy",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "accepted", out["status"])
	require.Equal(t, "enjoy", out["response_message"])

	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/v1/requests/%d/respond", reqID), ann, map[string]any{"status": "declined"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// accepted books leave the catalog
	rec, out = s.do(t, http.MethodGet, "/v1/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, dataLen(t, out))

	// and a settled request cannot be cancelled
	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/requests/%d", reqID), bob, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelAndBookOwnership(t *testing.T) {
	s := newServer(t, nil)
	ann := s.register(t, "Ann", "ann@example.com")
	bob := s.register(t, "Bob", "bob@example.com")
	bookID := s.createBook(t, ann, "Emma")

	_, out := s.do(t, http.MethodPost, "/v1/requests", bob, map[string]any{"book_id": bookID})
	reqID := int64(out["id"].(float64))

	rec, _ := s.do(t, http.MethodDelete, fmt.Sprintf("/v1/requests/%d", reqID), ann, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/requests/%d", reqID), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/requests/%d", reqID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/v1/books/%d", bookID), bob, map[string]any{"title": "Mine now"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, out = s.do(t, http.MethodPut, fmt.Sprintf("/v1/books/%d", bookID), ann, map[string]any{"title": "Emma (2nd ed.)"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Emma (2nd ed.)", out["title"])
	require.Equal(t, "Someone", out["author"])

	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/v1/books/%d", bookID), ann, map[string]any{"title": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/books/%d", bookID), bob, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/books/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBook(t *testing.T, method, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestBookImageLifecycle(t *testing.T) {
	s := newServer(t, nil)
	ann := s.register(t, "Ann", "ann@example.com")

	req := multipartBook(t, http.MethodPost, "/v1/books", map[string]string{
		"title": "Dune", "author": "Frank Herbert", "condition": "Excellent",
	}, "cover.jpg", []byte("jpeg"))
	rec, out := s.send(t, req, ann)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookID := int64(out["id"].(float64))
	first, _ := out["image"].(string)
	require.NotEmpty(t, first)
	require.FileExists(t, filepath.Join(s.uploadDir, first))

	// replacing the cover releases the old file; unsent fields stay
	req = multipartBook(t, http.MethodPut, fmt.Sprintf("/v1/books/%d", bookID), map[string]string{
		"category": "SciFi",
	}, "cover.png", []byte("png"))
	rec, out = s.send(t, req, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second, _ := out["image"].(string)
	require.NotEqual(t, first, second)
	require.Equal(t, "Dune", out["title"])
	require.Equal(t, "SciFi", out["category"])
	require.NoFileExists(t, filepath.Join(s.uploadDir, first))
	require.FileExists(t, filepath.Join(s.uploadDir, second))

	req = multipartBook(t, http.MethodPost, "/v1/books", map[string]string{
		"title": "Bad", "author": "X", "condition": "Good",
	}, "virus.exe", []byte("MZ"))
	rec, _ = s.send(t, req, ann)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/books/%d", bookID), ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoFileExists(t, filepath.Join(s.uploadDir, second))

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBookFormIgnoresQueryString(t *testing.T) {
	s := newServer(t, nil)
	ann := s.register(t, "Ann", "ann@example.com")
	bookID := s.createBook(t, ann, "Dune")

	req := multipartBook(t, http.MethodPut, fmt.Sprintf("/v1/books/%d?title=FromQuery&condition=Mint", bookID), map[string]string{
		"category": "SciFi",
	}, "", nil)
	rec, out := s.send(t, req, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Dune", out["title"])
	require.Equal(t, "Good", out["condition"])
	require.Equal(t, "SciFi", out["category"])

	form := url.Values{"category": {"Classics"}}
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v1/books/%d?author=Nobody", bookID), strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec, out = s.send(t, req, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Someone", out["author"])
	require.Equal(t, "Classics", out["category"])

	// a title in the query does not satisfy the body requirement
	req = multipartBook(t, http.MethodPost, "/v1/books?title=FromQuery", map[string]string{
		"author": "X", "condition": "Good",
	}, "", nil)
	rec, out = s.send(t, req, ann)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "title is required", out["message"])

	rec, out = s.do(t, http.MethodPost, "/v1/books", ann, map[string]any{
		"title": "Emma", "author": "Jane Austen", "condition": "Mint",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "condition must be one of Excellent, Good, Fair, Poor", out["message"])
}

func TestAuthRateLimit(t *testing.T) {
	s := newServer(t, echoServer.NewIPRateLimiter(0.001, 1))

	rec, _ := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "a@example.com", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "a@example.com", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other routes are not limited
	rec, _ = s.do(t, http.MethodGet, "/v1/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
