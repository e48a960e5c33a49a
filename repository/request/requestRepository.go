package requestrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/util/database"
)

const pairConstraint = "book_requests_book_requester_key"

type Repo interface {
	// Insert stores a pending request. It fails with ErrNotFound when the
	// book is gone, ErrBookUnavailable when it is no longer available and
	// ErrDuplicate when the (book, requester) pair already exists.
	Insert(ctx context.Context, rq *model.Request) error
	Get(ctx context.Context, id int64) (*model.Request, error)
	Exists(ctx context.Context, bookID, requesterID int64) (bool, error)
	ListByRequester(ctx context.Context, userID int64) ([]model.Request, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.Request, error)

	// Respond moves a pending request to status. Accepting also marks the
	// book unavailable in the same transaction. ErrStale when not pending.
	Respond(ctx context.Context, id int64, status model.RequestStatus, responseMessage string) (*model.Request, error)
	// DeletePending removes the request only while it is pending.
	DeletePending(ctx context.Context, id int64) error

	// ReconcileAvailability marks unavailable every available book that has
	// an accepted request and returns how many were fixed.
	ReconcileAvailability(ctx context.Context) (int64, error)
}

type repo struct {
	db *database.DB
}

func New(db *database.DB) Repo { return &repo{db: db} }

const requestCols = `id, book_id, requester_id, owner_id, status, message, response_message, created_at, updated_at`

func scanRequest(row pgx.Row, rq *model.Request) error {
	return row.Scan(&rq.ID, &rq.BookID, &rq.RequesterID, &rq.OwnerID, &rq.Status,
		&rq.Message, &rq.ResponseMessage, &rq.CreatedAt, &rq.UpdatedAt)
}

func (r *repo) Insert(ctx context.Context, rq *model.Request) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		// Share lock: blocks a concurrent accept or delete of the book
		// until this insert commits.
		var owner int64
		var available bool
		err := tx.QueryRow(ctx, `
			SELECT owner_id, is_available
			FROM books
			WHERE id = $1
			FOR SHARE`, rq.BookID).Scan(&owner, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock book: %w", err)
		}
		if !available {
			return repository.ErrBookUnavailable
		}
		rq.OwnerID = owner

		const q = `
		INSERT INTO book_requests (book_id, requester_id, owner_id, status, message)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING id, status, created_at, updated_at`
		err = tx.QueryRow(ctx, q, rq.BookID, rq.RequesterID, rq.OwnerID, rq.Message).
			Scan(&rq.ID, &rq.Status, &rq.CreatedAt, &rq.UpdatedAt)
		switch {
		case database.IsUniqueViolation(err, pairConstraint):
			return repository.ErrDuplicate
		case database.IsForeignKeyViolation(err):
			return repository.ErrNotFound
		case err != nil:
			return fmt.Errorf("insert request: %w", err)
		}
		return nil
	})
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Request, error) {
	var rq model.Request
	err := scanRequest(r.db.Pool.QueryRow(ctx, `SELECT `+requestCols+` FROM book_requests WHERE id = $1`, id), &rq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rq, nil
}

func (r *repo) Exists(ctx context.Context, bookID, requesterID int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM book_requests WHERE book_id = $1 AND requester_id = $2
		)`, bookID, requesterID).Scan(&ok)
	return ok, err
}

func (r *repo) ListByRequester(ctx context.Context, userID int64) ([]model.Request, error) {
	return r.list(ctx, `
			SELECT `+requestCols+`
			FROM book_requests
			WHERE requester_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
}

func (r *repo) ListByOwner(ctx context.Context, userID int64) ([]model.Request, error) {
	return r.list(ctx, `
			SELECT `+requestCols+`
			FROM book_requests
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
}

func (r *repo) Respond(ctx context.Context, id int64, status model.RequestStatus, responseMessage string) (*model.Request, error) {
	var out model.Request
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		var bookID int64
		err := tx.QueryRow(ctx, `SELECT book_id FROM book_requests WHERE id = $1`, id).Scan(&bookID)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		// Lock order is book then request, matching Insert and book delete.
		if _, err := tx.Exec(ctx, `SELECT 1 FROM books WHERE id = $1 FOR UPDATE`, bookID); err != nil {
			return fmt.Errorf("lock book: %w", err)
		}
		if err := lockPending(ctx, tx, id); err != nil {
			return err
		}

		// Guard: only a pending request moves.
		const q = `
		UPDATE book_requests
		SET status = $2,
			response_message = $3,
			updated_at = NOW()
		WHERE id = $1
		AND status = 'pending'
		RETURNING ` + requestCols
		err = scanRequest(tx.QueryRow(ctx, q, id, status, responseMessage), &out)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrStale
		}
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		if status == model.RequestAccepted {
			const q2 = `
			UPDATE books
			SET is_available = FALSE,
				updated_at = NOW()
			WHERE id = $1`
			if _, err := tx.Exec(ctx, q2, out.BookID); err != nil {
				return fmt.Errorf("mark book unavailable: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePending removes a pending request. A request that is gone reports
// ErrNotFound and one that was already answered reports ErrStale.
func (r *repo) DeletePending(ctx context.Context, id int64) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := lockPending(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM book_requests WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
}

// lockPending row-locks request id and checks it is still pending.
func lockPending(ctx context.Context, tx pgx.Tx, id int64) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM book_requests WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	if model.RequestStatus(status) != model.RequestPending {
		return repository.ErrStale
	}
	return nil
}

func (r *repo) ReconcileAvailability(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE books b
		SET is_available = FALSE,
			updated_at = NOW()
		WHERE b.is_available
		AND EXISTS (
			SELECT 1 FROM book_requests r
			WHERE r.book_id = b.id AND r.status = 'accepted'
		)`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Request, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Request{}
	for rows.Next() {
		var rq model.Request
		if err := scanRequest(rows, &rq); err != nil {
			return nil, err
		}
		out = append(out, rq)
	}
	return out, rows.Err()
}
