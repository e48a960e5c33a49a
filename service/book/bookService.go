package booksvc

import (
	"context"
	"errors"
	"strings"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/service/enrich"
	"github.com/Shivamsingh4838/bookswap/util/apperr"
	"github.com/Shivamsingh4838/bookswap/util/metrics"
	"github.com/Shivamsingh4838/bookswap/util/validate"
)

// ErrNotOwner is returned when someone other than the owner edits a book.
var ErrNotOwner = apperr.Unauthorized("not the owner of this book")

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type Service interface {
	ListAvailable(ctx context.Context) ([]model.BookView, error)
	ListOwnedBy(ctx context.Context, userID int64) ([]model.BookView, error)
	Get(ctx context.Context, id int64) (*model.BookView, error)
	Create(ctx context.Context, ownerID int64, f model.BookFields) (*model.BookView, error)
	Update(ctx context.Context, requesterID, bookID int64, p model.BookPatch) (*model.BookView, error)
	// Delete removes the book and its requests and returns the removed
	// record so the caller can release the cover image.
	Delete(ctx context.Context, requesterID, bookID int64) (*model.Book, error)
}

type service struct {
	r Repo
	e *enrich.Enricher
}

func New(r Repo, e *enrich.Enricher) Service { return &service{r: r, e: e} }

func (s *service) ListAvailable(ctx context.Context) ([]model.BookView, error) {
	books, err := s.r.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return s.e.Books(ctx, books)
}

func (s *service) ListOwnedBy(ctx context.Context, userID int64) ([]model.BookView, error) {
	books, err := s.r.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.e.Books(ctx, books)
}

func (s *service) Get(ctx context.Context, id int64) (*model.BookView, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, *b)
}

func (s *service) Create(ctx context.Context, ownerID int64, f model.BookFields) (*model.BookView, error) {
	b := model.Book{
		Title:       strings.TrimSpace(f.Title),
		Author:      strings.TrimSpace(f.Author),
		Condition:   f.Condition,
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Image:       f.Image,
		OwnerID:     ownerID,
	}
	if err := validate.Struct(b.Fields()); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, &b); err != nil {
		return nil, err
	}
	metrics.RecordBookEvent("created")
	return s.view(ctx, b)
}

func (s *service) Update(ctx context.Context, requesterID, bookID int64, p model.BookPatch) (*model.BookView, error) {
	b, err := s.owned(ctx, requesterID, bookID)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.Condition != nil {
		b.Condition = *p.Condition
	}
	if p.Description != nil {
		b.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
	if err := validate.Struct(b.Fields()); err != nil {
		return nil, err
	}

	if err := s.r.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, err
	}
	return s.view(ctx, *b)
}

func (s *service) Delete(ctx context.Context, requesterID, bookID int64) (*model.Book, error) {
	b, err := s.owned(ctx, requesterID, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.r.Delete(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, err
	}
	metrics.RecordBookEvent("deleted")
	return b, nil
}

func (s *service) load(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("book not found")
	}
	return b, err
}

func (s *service) owned(ctx context.Context, requesterID, bookID int64) (*model.Book, error) {
	b, err := s.load(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *service) view(ctx context.Context, b model.Book) (*model.BookView, error) {
	v, err := s.e.Book(ctx, b)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
