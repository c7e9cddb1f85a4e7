package ledger

import (
	"context"
	"errors"
	"time"

	"librecords/model"
	"librecords/util/database"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrAlreadyBorrowed ErrCode = "ALREADY_BORROWED"
	ErrDuplicateBorrow ErrCode = "DUPLICATE_BORROW"
	ErrNotBorrowed     ErrCode = "NOT_BORROWED"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrConflict        ErrCode = "CONFLICT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	ActiveByBook(ctx context.Context, bookID int64) (*model.BorrowRecord, error)
	Insert(ctx context.Context, bookID, memberID int64, at time.Time) (*model.BorrowRecord, error)
	MarkReturned(ctx context.Context, recordID int64, at time.Time) (*model.BorrowRecord, error)

	ListActiveByMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error)
	ListActiveMembersByBook(ctx context.Context, bookID int64) ([]model.Member, error)

	ByID(ctx context.Context, id int64) (*model.BorrowRecord, error)
	List(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error)
	Delete(ctx context.Context, id int64) (*model.BorrowRecord, error)
}

// BookLocker serializes ledger operations per book. The row lock plus the
// partial unique index on active records is what keeps a book from being
// lent twice under concurrent requests.
type BookLocker interface {
	LockForUpdate(ctx context.Context, id int64) (bool, error)
}

type MemberChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	// Borrow lends bookID to memberID. Returned records stay in the table
	// as history; only a record with no return timestamp counts as active.
	Borrow(ctx context.Context, bookID, memberID int64) (*model.BorrowRecord, error)

	// Return closes the member's active record on the book and returns the
	// finalized record.
	Return(ctx context.Context, bookID, memberID int64) (*model.BorrowRecord, error)

	ListActiveForMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error)
	ListActiveBorrowersForBook(ctx context.Context, bookID int64) ([]model.Member, error)

	// Administrative record access. SetReturnDate and DeleteRecord are
	// plain store operations outside the borrow/return state machine.
	GetRecord(ctx context.Context, id int64) (*model.BorrowRecord, error)
	ListRecords(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error)
	SetReturnDate(ctx context.Context, id int64, at time.Time) (*model.BorrowRecord, error)
	DeleteRecord(ctx context.Context, id int64) (*model.BorrowRecord, error)
}

type service struct {
	r   Repo
	b   BookLocker
	m   MemberChecker
	now func() time.Time
}

type Option func(*service)

// WithNow overrides the clock, for tests.
func WithNow(fn func() time.Time) Option {
	return func(s *service) { s.now = fn }
}

func New(r Repo, b BookLocker, m MemberChecker, opts ...Option) Service {
	s := &service{
		r:   r,
		b:   b,
		m:   m,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Borrow(ctx context.Context, bookID, memberID int64) (*model.BorrowRecord, error) {
	var rec *model.BorrowRecord

	// A lost race shows up as a unique violation on the active-record
	// index. Retry the whole transaction once; the second attempt sees the
	// committed record and reports the precise reason. A second violation
	// is surfaced as a conflict.
	for attempt := 0; ; attempt++ {
		err := s.r.WithTx(ctx, func(ctx context.Context) error {
			ok, err := s.b.LockForUpdate(ctx, bookID)
			if err != nil {
				return err
			}
			if !ok {
				return makeErr(ErrNotFound)
			}
			ok, err = s.m.Exists(ctx, memberID)
			if err != nil {
				return err
			}
			if !ok {
				return makeErr(ErrNotFound)
			}

			active, err := s.r.ActiveByBook(ctx, bookID)
			if err != nil {
				return err
			}
			if active != nil {
				if active.MemberID == memberID {
					return makeErr(ErrDuplicateBorrow)
				}
				return makeErr(ErrAlreadyBorrowed)
			}

			rec, err = s.r.Insert(ctx, bookID, memberID, s.now())
			return err
		})
		if err == nil {
			return rec, nil
		}
		if database.IsUniqueViolation(err) {
			if attempt == 0 {
				continue
			}
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}
}

func (s *service) Return(ctx context.Context, bookID, memberID int64) (*model.BorrowRecord, error) {
	var rec *model.BorrowRecord
	err := s.r.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.b.LockForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrNotFound)
		}
		ok, err = s.m.Exists(ctx, memberID)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrNotFound)
		}

		active, err := s.r.ActiveByBook(ctx, bookID)
		if err != nil {
			return err
		}
		if active == nil || active.MemberID != memberID {
			return makeErr(ErrNotBorrowed)
		}

		rec, err = s.r.MarkReturned(ctx, active.ID, s.now())
		if err != nil {
			return err
		}
		if rec == nil {
			// Closed between the read and the update; cannot happen while
			// the book row is locked, but the state machine is terminal
			// either way.
			return makeErr(ErrNotBorrowed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) ListActiveForMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error) {
	ok, err := s.m.Exists(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrNotFound)
	}
	return s.r.ListActiveByMember(ctx, memberID)
}

func (s *service) ListActiveBorrowersForBook(ctx context.Context, bookID int64) ([]model.Member, error) {
	return s.r.ListActiveMembersByBook(ctx, bookID)
}

func (s *service) GetRecord(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	rec, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rec, nil
}

func (s *service) ListRecords(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error) {
	return s.r.List(ctx, offset, limit)
}

func (s *service) SetReturnDate(ctx context.Context, id int64, at time.Time) (*model.BorrowRecord, error) {
	var rec *model.BorrowRecord
	err := s.r.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.r.ByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return makeErr(ErrNotFound)
		}
		if cur.ReturnedAt != nil {
			return makeErr(ErrAlreadyReturned)
		}
		rec, err = s.r.MarkReturned(ctx, id, at)
		if err != nil {
			return err
		}
		if rec == nil {
			return makeErr(ErrAlreadyReturned)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) DeleteRecord(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	rec, err := s.r.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rec, nil
}
