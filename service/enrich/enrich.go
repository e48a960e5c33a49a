// Package enrich resolves the user and book references of catalog and request
// records into display data. Every list is resolved with one batched lookup
// per entity type.
package enrich

import (
	"context"
	"fmt"

	"github.com/Shivamsingh4838/bookswap/model"
)

type UserLookup interface {
	Summaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
}

type BookLookup interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]model.Book, error)
}

type Enricher struct {
	users UserLookup
	books BookLookup
}

func New(users UserLookup, books BookLookup) *Enricher {
	return &Enricher{users: users, books: books}
}

func (e *Enricher) Book(ctx context.Context, b model.Book) (model.BookView, error) {
	out, err := e.Books(ctx, []model.Book{b})
	if err != nil {
		return model.BookView{}, err
	}
	return out[0], nil
}

func (e *Enricher) Books(ctx context.Context, books []model.Book) ([]model.BookView, error) {
	ids := newIDSet()
	for _, b := range books {
		ids.add(b.OwnerID)
	}
	users, err := e.users.Summaries(ctx, ids.list)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	out := make([]model.BookView, 0, len(books))
	for _, b := range books {
		out = append(out, model.BookView{Book: b, Owner: summary(users, b.OwnerID)})
	}
	return out, nil
}

func (e *Enricher) Request(ctx context.Context, rq model.Request) (model.RequestView, error) {
	out, err := e.Requests(ctx, []model.Request{rq})
	if err != nil {
		return model.RequestView{}, err
	}
	return out[0], nil
}

func (e *Enricher) Requests(ctx context.Context, reqs []model.Request) ([]model.RequestView, error) {
	bookIDs := newIDSet()
	for _, rq := range reqs {
		bookIDs.add(rq.BookID)
	}
	books, err := e.books.GetMany(ctx, bookIDs.list)
	if err != nil {
		return nil, fmt.Errorf("resolve books: %w", err)
	}

	userIDs := newIDSet()
	for _, rq := range reqs {
		userIDs.add(rq.RequesterID)
		userIDs.add(rq.OwnerID)
		if b, ok := books[rq.BookID]; ok {
			userIDs.add(b.OwnerID)
		}
	}
	users, err := e.users.Summaries(ctx, userIDs.list)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}

	out := make([]model.RequestView, 0, len(reqs))
	for _, rq := range reqs {
		bv := model.BookView{Book: model.Book{ID: rq.BookID}}
		if b, ok := books[rq.BookID]; ok {
			bv = model.BookView{Book: b, Owner: summary(users, b.OwnerID)}
		}
		out = append(out, model.RequestView{
			ID:              rq.ID,
			Book:            bv,
			Requester:       summary(users, rq.RequesterID),
			Owner:           summary(users, rq.OwnerID),
			Status:          rq.Status,
			Message:         rq.Message,
			ResponseMessage: rq.ResponseMessage,
			CreatedAt:       rq.CreatedAt,
			UpdatedAt:       rq.UpdatedAt,
		})
	}
	return out, nil
}

// summary falls back to an id-only summary for users that no longer resolve.
func summary(users map[int64]model.UserSummary, id int64) model.UserSummary {
	if s, ok := users[id]; ok {
		return s
	}
	return model.UserSummary{ID: id}
}

type idSet struct {
	seen map[int64]struct{}
	list []int64
}

func newIDSet() *idSet { return &idSet{seen: map[int64]struct{}{}} }

func (s *idSet) add(id int64) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, id)
}
