package bookrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"librecords/model"
	"librecords/util/database"
)

type Repo interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookUpdate) (*model.Book, error)
	Delete(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
	LockForUpdate(ctx context.Context, id int64) (bool, error)
	InCategoryExcluding(ctx context.Context, category string, exclude []int64) ([]model.Book, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

const bookCols = `id, title, author, isbn, category`

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	return r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO books (title, author, isbn, category)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		b.Title, b.Author, b.ISBN, b.Category,
	).Scan(&b.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT `+bookCols+` FROM books WHERE id = $1`, id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Update(ctx context.Context, id int64, patch model.BookUpdate) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		UPDATE books SET
			title    = COALESCE($2, title),
			author   = COALESCE($3, author),
			isbn     = COALESCE($4, isbn),
			category = COALESCE($5, category)
		WHERE id = $1
		RETURNING `+bookCols,
		id, patch.Title, patch.Author, patch.ISBN, patch.Category,
	).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		DELETE FROM books WHERE id = $1
		RETURNING `+bookCols, id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, offset, limit int) ([]model.Book, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+bookCols+` FROM books ORDER BY id OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LockForUpdate takes a row lock on the book so borrow, return and delete
// on the same book serialize. Reports whether the book exists.
func (r *repo) LockForUpdate(ctx context.Context, id int64) (bool, error) {
	var got int64
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT id FROM books WHERE id = $1 FOR UPDATE`, id,
	).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repo) InCategoryExcluding(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
	if exclude == nil {
		// nil encodes as SQL NULL and "<> ALL(NULL)" matches nothing.
		exclude = []int64{}
	}
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+bookCols+`
		FROM books
		WHERE category = $1 AND id <> ALL($2)
		ORDER BY id`,
		category, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
