package membersvc

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
	Create(ctx context.Context, m *model.Member) error
	ByID(ctx context.Context, id int64) (*model.Member, error)
	Update(ctx context.Context, id int64, patch model.MemberUpdate) (*model.Member, error)
	Delete(ctx context.Context, id int64) (*model.Member, error)
	List(ctx context.Context, offset, limit int) ([]model.Member, error)
}

type ActiveBorrows interface {
	HasActiveByMember(ctx context.Context, memberID int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, m *model.Member) (*model.Member, error)
	Get(ctx context.Context, id int64) (*model.Member, error)
	Update(ctx context.Context, id int64, patch model.MemberUpdate) (*model.Member, error)
	Delete(ctx context.Context, id int64) (*model.Member, error)
	List(ctx context.Context, offset, limit int) ([]model.Member, error)
}

type service struct {
	r Repo
	g ActiveBorrows
}

func New(r Repo, g ActiveBorrows) Service { return &service{r: r, g: g} }

func (s *service) Create(ctx context.Context, m *model.Member) (*model.Member, error) {
	if m.Name == "" || m.Email == "" || m.MembershipID == "" {
		return nil, makeErr(ErrBadInput)
	}
	if err := s.r.Create(ctx, m); err != nil {
		if database.IsUniqueViolation(err) {
			// duplicate membership_id
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Member, error) {
	m, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, makeErr(ErrNotFound)
	}
	return m, nil
}

func (s *service) Update(ctx context.Context, id int64, patch model.MemberUpdate) (*model.Member, error) {
	m, err := s.r.Update(ctx, id, patch)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}
	if m == nil {
		return nil, makeErr(ErrNotFound)
	}
	return m, nil
}

// Delete refuses while the member still holds a book.
func (s *service) Delete(ctx context.Context, id int64) (*model.Member, error) {
	var m *model.Member
	err := s.r.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.r.ByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return makeErr(ErrNotFound)
		}
		active, err := s.g.HasActiveByMember(ctx, id)
		if err != nil {
			return err
		}
		if active {
			return makeErr(ErrConflict)
		}
		m, err = s.r.Delete(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) List(ctx context.Context, offset, limit int) ([]model.Member, error) {
	return s.r.List(ctx, offset, limit)
}
