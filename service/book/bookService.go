package booksvc

import (
	"context"
	"errors"

	"librecords/model"
	"librecords/util/database"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"
	ErrBadInput ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookUpdate) (*model.Book, error)
	Delete(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
	LockForUpdate(ctx context.Context, id int64) (bool, error)
}

// ActiveBorrows is the ledger-side guard consulted before a delete.
type ActiveBorrows interface {
	HasActiveByBook(ctx context.Context, bookID int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookUpdate) (*model.Book, error)
	Delete(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
}

type service struct {
	r Repo
	g ActiveBorrows
}

func New(r Repo, g ActiveBorrows) Service { return &service{r: r, g: g} }

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.Title == "" || b.Author == "" || b.ISBN == "" || b.Category == "" {
		return nil, makeErr(ErrBadInput)
	}
	if err := s.r.Create(ctx, b); err != nil {
		if database.IsUniqueViolation(err) {
			// duplicate isbn
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id int64, patch model.BookUpdate) (*model.Book, error) {
	b, err := s.r.Update(ctx, id, patch)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

// Delete removes a book unless an active borrow references it. The check
// and the delete run in one transaction with the book row locked, so a
// concurrent borrow cannot slip between them.
func (s *service) Delete(ctx context.Context, id int64) (*model.Book, error) {
	var b *model.Book
	err := s.r.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.r.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrNotFound)
		}
		active, err := s.g.HasActiveByBook(ctx, id)
		if err != nil {
			return err
		}
		if active {
			return makeErr(ErrConflict)
		}
		b, err = s.r.Delete(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, offset, limit int) ([]model.Book, error) {
	return s.r.List(ctx, offset, limit)
}
