package reviewsvc_test

import (
	"context"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"librecords/model"
	reviewsvc "librecords/service/review"
)

type repoMock struct {
	createFn func(ctx context.Context, rv *model.Review) error
	byIDFn   func(ctx context.Context, id int64) (*model.Review, error)
	updateFn func(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error)
	deleteFn func(ctx context.Context, id int64) (*model.Review, error)
	listFn   func(ctx context.Context, offset, limit int) ([]model.Review, error)
}

func (m *repoMock) Create(ctx context.Context, rv *model.Review) error { return m.createFn(ctx, rv) }
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Review, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *repoMock) Delete(ctx context.Context, id int64) (*model.Review, error) {
	return m.deleteFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context, offset, limit int) ([]model.Review, error) {
	return m.listFn(ctx, offset, limit)
}

func TestCreate_RatingOutOfRange(t *testing.T) {
	s := reviewsvc.New(&repoMock{})
	_, err := s.Create(context.Background(), &model.Review{BookID: 1, MemberID: 1, Rating: 9})
	require.Equal(t, reviewsvc.ErrBadInput, reviewsvc.Code(err))
}

func TestCreate_DanglingReference(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, rv *model.Review) error {
			return &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
		},
	}
	s := reviewsvc.New(m)
	_, err := s.Create(context.Background(), &model.Review{BookID: 99, MemberID: 1, Rating: 4})
	require.Equal(t, reviewsvc.ErrNotFound, reviewsvc.Code(err))
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, rv *model.Review) error {
			rv.ID = 3
			return nil
		},
	}
	s := reviewsvc.New(m)
	rv, err := s.Create(context.Background(), &model.Review{BookID: 1, MemberID: 2, Rating: 4.5})
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error) {
			return nil, nil
		},
	}
	s := reviewsvc.New(m)
	_, err := s.Update(context.Background(), 9, model.ReviewUpdate{})
	require.Equal(t, reviewsvc.ErrNotFound, reviewsvc.Code(err))
}

func TestDelete_Success(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) (*model.Review, error) {
			return &model.Review{ID: id}, nil
		},
	}
	s := reviewsvc.New(m)
	rv, err := s.Delete(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), rv.ID)
}
