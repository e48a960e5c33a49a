package bookrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivamsingh4838/bookswap/model"
	"github.com/Shivamsingh4838/bookswap/repository"
	"github.com/Shivamsingh4838/bookswap/util/database"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]model.Book, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const bookCols = `id, title, author, condition, description, category, image, owner_id, is_available, created_at, updated_at`

func scanBook(row pgx.Row, b *model.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.Condition, &b.Description, &b.Category,
		&b.Image, &b.OwnerID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, condition, description, category, image, owner_id, is_available)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE)
RETURNING id, is_available, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q,
		b.Title, b.Author, b.Condition, b.Description, b.Category, b.Image, b.OwnerID,
	).Scan(&b.ID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := scanBook(r.db.Pool.QueryRow(ctx, `SELECT `+bookCols+` FROM books WHERE id=$1`, id), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) GetMany(ctx context.Context, ids []int64) (map[int64]model.Book, error) {
	out := make(map[int64]model.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	books, err := r.list(ctx, `SELECT `+bookCols+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		out[b.ID] = b
	}
	return out, nil
}

func (r *repo) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return r.list(ctx, `
	SELECT `+bookCols+`
	FROM books
	WHERE is_available
	ORDER BY created_at DESC, id DESC`)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Book, error) {
	return r.list(ctx, `
	SELECT `+bookCols+`
	FROM books
	WHERE owner_id=$1
	ORDER BY created_at DESC, id DESC`, ownerID)
}

// Update writes the owner-editable columns. Owner and availability are left alone.
func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
UPDATE books
SET title=$2, author=$3, condition=$4, description=$5, category=$6, image=$7, updated_at=NOW()
WHERE id=$1
RETURNING owner_id, is_available, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q,
		b.ID, b.Title, b.Author, b.Condition, b.Description, b.Category, b.Image,
	).Scan(&b.OwnerID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// Delete removes the book and every request that references it in one transaction.
func (r *repo) Delete(ctx context.Context, id int64) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		// Book row first: request writers lock in the same order.
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM books WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock book: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM book_requests WHERE book_id=$1`, id); err != nil {
			return fmt.Errorf("delete book requests: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Book, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
