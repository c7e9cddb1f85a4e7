package recommendsvc

import (
	"context"
	"errors"
	"time"

	"librecords/model"
	borrowrepo "librecords/repository/borrow"
)

type ErrCode string

const (
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrNoHistory        ErrCode = "NO_HISTORY"
	ErrNoRecommendation ErrCode = "NO_RECOMMENDATION"
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

// HistoryItem = repository shape
type HistoryItem = borrowrepo.HistoryItem

type BorrowRepo interface {
	HistoryForMember(ctx context.Context, memberID int64) ([]HistoryItem, error)
	ActiveBookIDs(ctx context.Context, memberID int64) ([]int64, error)
}

type BookRepo interface {
	InCategoryExcluding(ctx context.Context, category string, exclude []int64) ([]model.Book, error)
}

type MemberChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	// Recommend suggests books from the member's most-borrowed category,
	// skipping titles the member currently holds.
	Recommend(ctx context.Context, memberID int64) ([]model.Book, error)
}

type service struct {
	br BorrowRepo
	bk BookRepo
	m  MemberChecker
}

func New(br BorrowRepo, bk BookRepo, m MemberChecker) Service {
	return &service{br: br, bk: bk, m: m}
}

func (s *service) Recommend(ctx context.Context, memberID int64) ([]model.Book, error) {
	ok, err := s.m.Exists(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrNotFound)
	}

	history, err := s.br.HistoryForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, makeErr(ErrNoHistory)
	}

	category := topCategory(history)

	activeIDs, err := s.br.ActiveBookIDs(ctx, memberID)
	if err != nil {
		return nil, err
	}

	books, err := s.bk.InCategoryExcluding(ctx, category, activeIDs)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, makeErr(ErrNoRecommendation)
	}
	return books, nil
}

// topCategory picks the category with the most borrows. Ties go to the
// category borrowed most recently, then to the lexically smaller name.
func topCategory(history []HistoryItem) string {
	counts := make(map[string]int, len(history))
	latest := make(map[string]time.Time, len(history))
	for _, h := range history {
		counts[h.Category]++
		if h.BorrowedAt.After(latest[h.Category]) {
			latest[h.Category] = h.BorrowedAt
		}
	}

	var best string
	for cat := range counts {
		if best == "" {
			best = cat
			continue
		}
		switch {
		case counts[cat] > counts[best]:
			best = cat
		case counts[cat] == counts[best] && latest[cat].After(latest[best]):
			best = cat
		case counts[cat] == counts[best] && latest[cat].Equal(latest[best]) && cat < best:
			best = cat
		}
	}
	return best
}
