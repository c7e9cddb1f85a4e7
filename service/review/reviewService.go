package reviewsvc

import (
	"context"
	"errors"

	"librecords/model"
	"librecords/util/database"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "NOT_FOUND"
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
	Create(ctx context.Context, rv *model.Review) error
	ByID(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, id int64) (*model.Review, error)
	List(ctx context.Context, offset, limit int) ([]model.Review, error)
}

type Service interface {
	Create(ctx context.Context, rv *model.Review) (*model.Review, error)
	Get(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, id int64) (*model.Review, error)
	List(ctx context.Context, offset, limit int) ([]model.Review, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	if rv.Rating < 0 || rv.Rating > 5 {
		return nil, makeErr(ErrBadInput)
	}
	if err := s.r.Create(ctx, rv); err != nil {
		if database.IsForeignKeyViolation(err) {
			// the referenced book or member is gone
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return rv, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Review, error) {
	rv, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rv, nil
}

func (s *service) Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error) {
	if patch.Rating != nil && (*patch.Rating < 0 || *patch.Rating > 5) {
		return nil, makeErr(ErrBadInput)
	}
	rv, err := s.r.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rv, nil
}

func (s *service) Delete(ctx context.Context, id int64) (*model.Review, error) {
	rv, err := s.r.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rv, nil
}

func (s *service) List(ctx context.Context, offset, limit int) ([]model.Review, error) {
	return s.r.List(ctx, offset, limit)
}
