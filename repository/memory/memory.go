// Package memory is an in-memory implementation of the user, book and request
// repositories. It is safe for concurrent use and enforces the same
// constraints as the postgres schema: unique email, unique (book, requester)
// pair, conditional request transitions and cascading book deletes. It backs
// the tests and the STORE_DRIVER=memory local mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	bookrepo "github.com/Shivamsingh4838/bookswap/repository/book"
	requestrepo "github.com/Shivamsingh4838/bookswap/repository/request"
	userrepo "github.com/Shivamsingh4838/bookswap/repository/user"
)

type pair struct{ bookID, requesterID int64 }

type Store struct {
	mu       sync.RWMutex
	nextID   int64
	now      func() time.Time
	users    map[int64]model.User
	emails   map[string]int64
	books    map[int64]model.Book
	requests map[int64]model.Request
	pairs    map[pair]int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[int64]model.User),
		emails:   make(map[string]int64),
		books:    make(map[int64]model.Book),
		requests: make(map[int64]model.Request),
		pairs:    make(map[pair]int64),
	}
}

func (s *Store) Users() userrepo.Repo       { return users{s} }
func (s *Store) Books() bookrepo.Repo       { return books{s} }
func (s *Store) Requests() requestrepo.Repo { return requests{s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// Users ---------------------------------------------------------------------

type users struct{ s *Store }

func (u users) Create(_ context.Context, usr *model.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(usr.Email)
	if _, taken := s.emails[key]; taken {
		return repository.ErrDuplicate
	}
	usr.ID = s.nextIDLocked()
	usr.CreatedAt = s.now()
	s.users[usr.ID] = *usr
	s.emails[key] = usr.ID
	return nil
}

func (u users) ByEmail(_ context.Context, email string) (*model.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	usr := s.users[id]
	return &usr, nil
}

func (u users) ByID(_ context.Context, id int64) (*model.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &usr, nil
}

func (u users) Summaries(_ context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		if usr, ok := s.users[id]; ok {
			out[id] = usr.Summary()
		}
	}
	return out, nil
}

// Books ---------------------------------------------------------------------

type books struct{ s *Store }

func (b books) Create(_ context.Context, bk *model.Book) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	bk.ID = s.nextIDLocked()
	bk.IsAvailable = true
	bk.CreatedAt = s.now()
	bk.UpdatedAt = bk.CreatedAt
	s.books[bk.ID] = *bk
	return nil
}

func (b books) Get(_ context.Context, id int64) (*model.Book, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	bk, ok := s.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &bk, nil
}

func (b books) GetMany(_ context.Context, ids []int64) (map[int64]model.Book, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]model.Book, len(ids))
	for _, id := range ids {
		if bk, ok := s.books[id]; ok {
			out[id] = bk
		}
	}
	return out, nil
}

func (b books) ListAvailable(_ context.Context) ([]model.Book, error) {
	return b.filter(func(bk model.Book) bool { return bk.IsAvailable }), nil
}

func (b books) ListByOwner(_ context.Context, ownerID int64) ([]model.Book, error) {
	return b.filter(func(bk model.Book) bool { return bk.OwnerID == ownerID }), nil
}

func (b books) filter(keep func(model.Book) bool) []model.Book {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Book{}
	for _, bk := range s.books {
		if keep(bk) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (b books) Update(_ context.Context, bk *model.Book) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.books[bk.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Title = bk.Title
	cur.Author = bk.Author
	cur.Condition = bk.Condition
	cur.Description = bk.Description
	cur.Category = bk.Category
	cur.Image = bk.Image
	cur.UpdatedAt = s.now()
	s.books[cur.ID] = cur
	*bk = cur
	return nil
}

func (b books) Delete(_ context.Context, id int64) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, rq := range s.requests {
		if rq.BookID == id {
			delete(s.requests, rid)
			delete(s.pairs, pair{rq.BookID, rq.RequesterID})
		}
	}
	delete(s.books, id)
	return nil
}

// Requests ------------------------------------------------------------------

type requests struct{ s *Store }

func (r requests) Insert(_ context.Context, rq *model.Request) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.books[rq.BookID]
	if !ok {
		return repository.ErrNotFound
	}
	if !bk.IsAvailable {
		return repository.ErrBookUnavailable
	}
	key := pair{rq.BookID, rq.RequesterID}
	if _, dup := s.pairs[key]; dup {
		return repository.ErrDuplicate
	}
	rq.ID = s.nextIDLocked()
	rq.OwnerID = bk.OwnerID
	rq.Status = model.RequestPending
	rq.ResponseMessage = ""
	rq.CreatedAt = s.now()
	rq.UpdatedAt = rq.CreatedAt
	s.requests[rq.ID] = *rq
	s.pairs[key] = rq.ID
	return nil
}

func (r requests) Get(_ context.Context, id int64) (*model.Request, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rq, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rq, nil
}

func (r requests) Exists(_ context.Context, bookID, requesterID int64) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pairs[pair{bookID, requesterID}]
	return ok, nil
}

func (r requests) ListByRequester(_ context.Context, userID int64) ([]model.Request, error) {
	return r.filter(func(rq model.Request) bool { return rq.RequesterID == userID }), nil
}

func (r requests) ListByOwner(_ context.Context, userID int64) ([]model.Request, error) {
	return r.filter(func(rq model.Request) bool { return rq.OwnerID == userID }), nil
}

func (r requests) filter(keep func(model.Request) bool) []model.Request {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Request{}
	for _, rq := range s.requests {
		if keep(rq) {
			out = append(out, rq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (r requests) Respond(_ context.Context, id int64, status model.RequestStatus, responseMessage string) (*model.Request, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rq, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rq.Status != model.RequestPending {
		return nil, repository.ErrStale
	}
	rq.Status = status
	rq.ResponseMessage = responseMessage
	rq.UpdatedAt = s.now()
	s.requests[id] = rq

	if status == model.RequestAccepted {
		if bk, ok := s.books[rq.BookID]; ok {
			bk.IsAvailable = false
			bk.UpdatedAt = rq.UpdatedAt
			s.books[bk.ID] = bk
		}
	}
	return &rq, nil
}

func (r requests) DeletePending(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rq, ok := s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rq.Status != model.RequestPending {
		return repository.ErrStale
	}
	delete(s.requests, id)
	delete(s.pairs, pair{rq.BookID, rq.RequesterID})
	return nil
}

func (r requests) ReconcileAvailability(_ context.Context) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var fixed int64
	for _, rq := range s.requests {
		if rq.Status != model.RequestAccepted {
			continue
		}
		bk, ok := s.books[rq.BookID]
		if !ok || !bk.IsAvailable {
			continue
		}
		bk.IsAvailable = false
		bk.UpdatedAt = s.now()
		s.books[bk.ID] = bk
		fixed++
	}
	return fixed, nil
}

func newer(ta time.Time, ida int64, tb time.Time, idb int64) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}
