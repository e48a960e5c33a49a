package requestsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/service/enrich"
	"github.com/Shivamsingh4838/bookswap/util/apperr"
	"github.com/Shivamsingh4838/bookswap/util/metrics"
)

// messages surfaced to callers
const (
	MsgBookNotFound     = "book not found"
	MsgRequestNotFound  = "request not found"
	MsgBookUnavailable  = "book not available"
	MsgOwnBook          = "cannot request own book"
	MsgDuplicate        = "duplicate request"
	MsgAlreadyResponded = "already responded"
	MsgBadStatus        = "status must be accepted or declined"
)

type Repo interface {
	Insert(ctx context.Context, rq *model.Request) error
	Get(ctx context.Context, id int64) (*model.Request, error)
	Exists(ctx context.Context, bookID, requesterID int64) (bool, error)
	ListByRequester(ctx context.Context, userID int64) ([]model.Request, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.Request, error)
	Respond(ctx context.Context, id int64, status model.RequestStatus, responseMessage string) (*model.Request, error)
	DeletePending(ctx context.Context, id int64) error
}

type BookReader interface {
	Get(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	// Create opens a pending request from requesterID against bookID.
	Create(ctx context.Context, requesterID, bookID int64, message string) (*model.RequestView, error)

	ListSentBy(ctx context.Context, userID int64) ([]model.RequestView, error)
	ListReceivedBy(ctx context.Context, userID int64) ([]model.RequestView, error)

	// Respond accepts or declines a pending request. Accepting marks the
	// book unavailable in the same write.
	Respond(ctx context.Context, ownerID, requestID int64, status model.RequestStatus, responseMessage string) (*model.RequestView, error)

	// Cancel deletes a pending request on behalf of its requester.
	Cancel(ctx context.Context, requesterID, requestID int64) error
}

type service struct {
	r     Repo
	books BookReader
	e     *enrich.Enricher
}

func New(r Repo, books BookReader, e *enrich.Enricher) Service {
	return &service{r: r, books: books, e: e}
}

func (s *service) Create(ctx context.Context, requesterID, bookID int64, message string) (*model.RequestView, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgBookNotFound)
		}
		return nil, err
	}
	if !book.IsAvailable {
		return nil, apperr.Conflict(MsgBookUnavailable)
	}
	if book.OwnerID == requesterID {
		return nil, apperr.Validation(MsgOwnBook)
	}

	// Pre-check only buys a clean message; the unique pair constraint
	// enforced by Insert is what actually guards against duplicates.
	exists, err := s.r.Exists(ctx, bookID, requesterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(MsgDuplicate)
	}

	rq := model.Request{
		BookID:      bookID,
		RequesterID: requesterID,
		OwnerID:     book.OwnerID,
		Status:      model.RequestPending,
		Message:     strings.TrimSpace(message),
	}
	if err := s.r.Insert(ctx, &rq); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.Conflict(MsgDuplicate)
		case errors.Is(err, repository.ErrBookUnavailable):
			return nil, apperr.Conflict(MsgBookUnavailable)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(MsgBookNotFound)
		default:
			return nil, err
		}
	}
	metrics.RecordRequestTransition(string(model.RequestPending))
	return s.view(ctx, rq)
}

func (s *service) ListSentBy(ctx context.Context, userID int64) ([]model.RequestView, error) {
	rows, err := s.r.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.e.Requests(ctx, rows)
}

func (s *service) ListReceivedBy(ctx context.Context, userID int64) ([]model.RequestView, error) {
	rows, err := s.r.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.e.Requests(ctx, rows)
}

func (s *service) Respond(ctx context.Context, ownerID, requestID int64, status model.RequestStatus, responseMessage string) (*model.RequestView, error) {
	rq, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rq.OwnerID != ownerID {
		return nil, apperr.Unauthorized("only the book owner can respond")
	}
	if rq.Status.Terminal() {
		return nil, apperr.Conflict(MsgAlreadyResponded)
	}
	if status != model.RequestAccepted && status != model.RequestDeclined {
		return nil, apperr.Validation(MsgBadStatus)
	}

	updated, err := s.r.Respond(ctx, requestID, status, strings.TrimSpace(responseMessage))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStale):
			return nil, apperr.Conflict(MsgAlreadyResponded)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(MsgRequestNotFound)
		default:
			return nil, err
		}
	}
	metrics.RecordRequestTransition(string(status))
	return s.view(ctx, *updated)
}

func (s *service) Cancel(ctx context.Context, requesterID, requestID int64) error {
	rq, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if rq.RequesterID != requesterID {
		return apperr.Unauthorized("only the requester can cancel")
	}
	if rq.Status.Terminal() {
		return apperr.Conflict(MsgAlreadyResponded)
	}

	if err := s.r.DeletePending(ctx, requestID); err != nil {
		switch {
		case errors.Is(err, repository.ErrStale):
			return apperr.Conflict(MsgAlreadyResponded)
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound(MsgRequestNotFound)
		default:
			return err
		}
	}
	metrics.RecordRequestTransition("cancelled")
	return nil
}

func (s *service) load(ctx context.Context, id int64) (*model.Request, error) {
	rq, err := s.r.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(MsgRequestNotFound)
	}
	return rq, err
}

func (s *service) view(ctx context.Context, rq model.Request) (*model.RequestView, error) {
	v, err := s.e.Request(ctx, rq)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
