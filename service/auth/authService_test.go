// service/auth/auth_service_test.go
package authsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/util/apperr"
	"github.com/Shivamsingh4838/bookswap/util/hash"
	jwtutil "github.com/Shivamsingh4838/bookswap/util/jwt"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, repository.ErrNotFound
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, repository.ErrNotFound
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret", time.Hour)

	u, tok, err := svc.Register(ctx, model.RegisterReq{
		Name:     " Ann ",
		Email:    "USER@Example.COM",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, "Ann", u.Name)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "supersecret", u.PasswordHash)

	claims, err := jwtutil.ParseAuth(tok, "test-secret")
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret", time.Hour)

	bad := []struct {
		req  model.RegisterReq
		want string
	}{
		{model.RegisterReq{Name: " ", Email: "a@example.com", Password: "123456"}, "name is required"},
		{model.RegisterReq{Name: "A", Email: "not-an-email", Password: "123456"}, "invalid email"},
		{model.RegisterReq{Name: "A", Email: "a@@example.com", Password: "123456"}, "invalid email"},
		{model.RegisterReq{Name: "A", Email: "  ", Password: "123456"}, "email is required"},
		{model.RegisterReq{Name: "A", Email: "a@example.com", Password: "123"}, "password must be at least 6 characters"},
	}
	for _, c := range bad {
		_, _, err := svc.Register(ctx, c.req)
		require.Error(t, err)
		require.Equal(t, apperr.ErrValidation, apperr.Code(err), "req %+v", c.req)
		require.Equal(t, c.want, err.Error())
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error { return repository.ErrDuplicate },
	}
	svc := New(m, "test-secret", time.Hour)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Name: "A", Email: "taken@example.com", Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, apperr.ErrConflict, apperr.Code(err))
}

func TestRegister_CreateError(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error { return errors.New("db down") },
	}
	svc := New(m, "test-secret", time.Hour)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Name: "ok", Email: "ok@example.com", Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, apperr.ErrCode(""), apperr.Code(err))
}

func TestLogin_Success(t *testing.T) {
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Name: "Ann", Email: "user@example.com", PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret", time.Hour)

	u, tok, err := svc.Login(context.Background(), model.LoginReq{Email: "User@Example.com", Password: pw})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_Failures(t *testing.T) {
	hashed := mustHash(t, "correct-password")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "user@example.com" {
				return nil, repository.ErrNotFound
			}
			return &model.User{ID: 101, Email: email, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret", time.Hour)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, model.LoginReq{Email: " ", Password: ""})
	require.Equal(t, apperr.ErrValidation, apperr.Code(err))

	_, _, err = svc.Login(ctx, model.LoginReq{Email: "missing@example.com", Password: "whatever"})
	require.Equal(t, apperr.ErrUnauthenticated, apperr.Code(err))

	_, _, err = svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: "wrong-password"})
	require.Equal(t, apperr.ErrUnauthenticated, apperr.Code(err))
}

func TestVerify(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == 5 {
				return &model.User{ID: 5}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := New(m, "test-secret", time.Hour)
	ctx := context.Background()

	good, err := jwtutil.Issue("test-secret", 5, "", "", time.Hour)
	require.NoError(t, err)
	id, err := svc.Verify(ctx, "Bearer "+good)
	require.NoError(t, err)
	require.Equal(t, int64(5), id)

	ghost, err := jwtutil.Issue("test-secret", 6, "", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, ghost)
	require.Equal(t, apperr.ErrUnauthenticated, apperr.Code(err))

	forged, err := jwtutil.Issue("other-secret", 5, "", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, forged)
	require.Equal(t, apperr.ErrUnauthenticated, apperr.Code(err))

	_, err = svc.Verify(ctx, "")
	require.Equal(t, apperr.ErrUnauthenticated, apperr.Code(err))
}

func TestMe(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Ann", Email: "ann@example.com", PasswordHash: "x"}, nil
		},
	}
	me, err := New(m, "s", 0).Me(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, model.UserSummary{ID: 3, Name: "Ann", Email: "ann@example.com"}, *me)

	_, err = New(&mockRepo{}, "s", 0).Me(context.Background(), 3)
	require.Equal(t, apperr.ErrNotFound, apperr.Code(err))
}
