package authsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/util/apperr"
	"github.com/Shivamsingh4838/bookswap/util/hash"
	jwtutil "github.com/Shivamsingh4838/bookswap/util/jwt"
	"github.com/Shivamsingh4838/bookswap/util/validate"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	// Verify resolves a bearer credential to a user id, failing with
	// UNAUTHENTICATED for anything it cannot trust.
	Verify(ctx context.Context, token string) (int64, error)
	Me(ctx context.Context, userID int64) (*model.UserSummary, error)
}

type service struct {
	ur     Repo
	secret string
	ttl    time.Duration
}

func New(ur Repo, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{ur: ur, secret: secret, ttl: ttl}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, "", err
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Name, u.Email, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.TrimSpace(req.Email)
	if err := validate.Var(email, "email", "required"); err != nil {
		return nil, "", err
	}
	if err := validate.Var(req.Password, "password", "required"); err != nil {
		return nil, "", err
	}
	u, err := s.ur.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.Unauthenticated("invalid credentials")
		}
		return nil, "", err
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", apperr.Unauthenticated("invalid credentials")
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Name, u.Email, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Verify(ctx context.Context, token string) (int64, error) {
	claims, err := jwtutil.ParseAuth(token, s.secret)
	if err != nil {
		return 0, apperr.Unauthenticated("invalid token")
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, apperr.Unauthenticated("invalid token")
	}
	if _, err := s.ur.ByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperr.Unauthenticated("unknown user")
		}
		return 0, err
	}
	return id, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*model.UserSummary, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}
