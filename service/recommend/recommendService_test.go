package recommendsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"librecords/model"
	recommendsvc "librecords/service/recommend"
)

type borrowMock struct {
	historyFn func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error)
	activeFn  func(ctx context.Context, memberID int64) ([]int64, error)
}

func (m *borrowMock) HistoryForMember(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
	return m.historyFn(ctx, memberID)
}
func (m *borrowMock) ActiveBookIDs(ctx context.Context, memberID int64) ([]int64, error) {
	if m.activeFn == nil {
		return nil, nil
	}
	return m.activeFn(ctx, memberID)
}

type bookMock struct {
	inCategoryFn func(ctx context.Context, category string, exclude []int64) ([]model.Book, error)
}

func (m *bookMock) InCategoryExcluding(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
	return m.inCategoryFn(ctx, category, exclude)
}

type memberMock struct{ exists bool }

func (m *memberMock) Exists(ctx context.Context, id int64) (bool, error) { return m.exists, nil }

func at(day int) time.Time {
	return time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC)
}

func TestRecommend_MemberNotFound(t *testing.T) {
	svc := recommendsvc.New(&borrowMock{}, &bookMock{}, &memberMock{exists: false})

	_, err := svc.Recommend(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, recommendsvc.ErrNotFound, recommendsvc.Code(err))
}

func TestRecommend_NoHistory(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return nil, nil
		},
	}
	svc := recommendsvc.New(br, &bookMock{}, &memberMock{exists: true})

	_, err := svc.Recommend(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, recommendsvc.ErrNoHistory, recommendsvc.Code(err))
}

func TestRecommend_PicksMostBorrowedCategory(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return []recommendsvc.HistoryItem{
				{BookID: 1, Category: "scifi", BorrowedAt: at(1)},
				{BookID: 2, Category: "scifi", BorrowedAt: at(2)},
				{BookID: 3, Category: "history", BorrowedAt: at(3)},
			}, nil
		},
	}
	var gotCategory string
	bk := &bookMock{
		inCategoryFn: func(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
			gotCategory = category
			return []model.Book{{ID: 9, Category: category}}, nil
		},
	}
	svc := recommendsvc.New(br, bk, &memberMock{exists: true})

	books, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "scifi", gotCategory)
	require.Len(t, books, 1)
}

func TestRecommend_TieBrokenByMostRecentBorrow(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return []recommendsvc.HistoryItem{
				{BookID: 1, Category: "scifi", BorrowedAt: at(1)},
				{BookID: 2, Category: "history", BorrowedAt: at(5)},
			}, nil
		},
	}
	var gotCategory string
	bk := &bookMock{
		inCategoryFn: func(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
			gotCategory = category
			return []model.Book{{ID: 9}}, nil
		},
	}
	svc := recommendsvc.New(br, bk, &memberMock{exists: true})

	_, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "history", gotCategory)
}

func TestRecommend_TieOnTimeFallsBackToName(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return []recommendsvc.HistoryItem{
				{BookID: 1, Category: "scifi", BorrowedAt: at(1)},
				{BookID: 2, Category: "history", BorrowedAt: at(1)},
			}, nil
		},
	}
	var gotCategory string
	bk := &bookMock{
		inCategoryFn: func(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
			gotCategory = category
			return []model.Book{{ID: 9}}, nil
		},
	}
	svc := recommendsvc.New(br, bk, &memberMock{exists: true})

	_, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "history", gotCategory)
}

func TestRecommend_ExcludesCurrentlyHeldBooks(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return []recommendsvc.HistoryItem{
				{BookID: 1, Category: "scifi", BorrowedAt: at(1)},
			}, nil
		},
		activeFn: func(ctx context.Context, memberID int64) ([]int64, error) {
			return []int64{1}, nil
		},
	}
	var gotExclude []int64
	bk := &bookMock{
		inCategoryFn: func(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
			gotExclude = exclude
			return []model.Book{{ID: 2, Category: "scifi"}}, nil
		},
	}
	svc := recommendsvc.New(br, bk, &memberMock{exists: true})

	books, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, gotExclude)
	require.Len(t, books, 1)
	require.Equal(t, int64(2), books[0].ID)
}

func TestRecommend_NoRecommendation(t *testing.T) {
	br := &borrowMock{
		historyFn: func(ctx context.Context, memberID int64) ([]recommendsvc.HistoryItem, error) {
			return []recommendsvc.HistoryItem{
				{BookID: 1, Category: "scifi", BorrowedAt: at(1)},
			}, nil
		},
	}
	bk := &bookMock{
		inCategoryFn: func(ctx context.Context, category string, exclude []int64) ([]model.Book, error) {
			return nil, nil
		},
	}
	svc := recommendsvc.New(br, bk, &memberMock{exists: true})

	_, err := svc.Recommend(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, recommendsvc.ErrNoRecommendation, recommendsvc.Code(err))
}
