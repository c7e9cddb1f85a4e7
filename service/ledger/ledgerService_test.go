package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"librecords/model"
)

// fakeStore is an in-memory stand-in for the borrow repository. WithTx
// takes a single lock for the duration of the callback, which mirrors the
// serialization the row lock gives the real store, and Insert enforces the
// active-record unique index the way postgres would.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	records []model.BorrowRecord
	books   map[int64]bool
	members map[int64]bool

	// queued errors returned by Insert before the real behavior runs
	insertErrs []error
}

func newStore(books, members []int64) *fakeStore {
	f := &fakeStore{books: map[int64]bool{}, members: map[int64]bool{}}
	for _, id := range books {
		f.books[id] = true
	}
	for _, id := range members {
		f.members[id] = true
	}
	return f
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeStore) LockForUpdate(ctx context.Context, id int64) (bool, error) {
	return f.books[id], nil
}

func (f *fakeStore) Exists(ctx context.Context, id int64) (bool, error) {
	return f.members[id], nil
}

func (f *fakeStore) ActiveByBook(ctx context.Context, bookID int64) (*model.BorrowRecord, error) {
	for i := range f.records {
		if f.records[i].BookID == bookID && f.records[i].ReturnedAt == nil {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Insert(ctx context.Context, bookID, memberID int64, at time.Time) (*model.BorrowRecord, error) {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for i := range f.records {
		if f.records[i].BookID == bookID && f.records[i].ReturnedAt == nil {
			return nil, uniqueViolation()
		}
	}
	f.nextID++
	rec := model.BorrowRecord{ID: f.nextID, BookID: bookID, MemberID: memberID, BorrowedAt: at}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeStore) MarkReturned(ctx context.Context, recordID int64, at time.Time) (*model.BorrowRecord, error) {
	for i := range f.records {
		if f.records[i].ID == recordID && f.records[i].ReturnedAt == nil {
			t := at
			f.records[i].ReturnedAt = &t
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListActiveByMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error) {
	var out []model.BorrowRecord
	for _, r := range f.records {
		if r.MemberID == memberID && r.ReturnedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveMembersByBook(ctx context.Context, bookID int64) ([]model.Member, error) {
	var out []model.Member
	for _, r := range f.records {
		if r.BookID == bookID && r.ReturnedAt == nil {
			out = append(out, model.Member{ID: r.MemberID})
		}
	}
	return out, nil
}

func (f *fakeStore) ByID(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error) {
	if offset >= len(f.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return append([]model.BorrowRecord(nil), f.records[offset:end]...), nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			rec := f.records[i]
			f.records = append(f.records[:i], f.records[i+1:]...)
			return &rec, nil
		}
	}
	return nil, nil
}

func newService(f *fakeStore) Service {
	return New(f, f, f)
}

// --- tests ---

func TestBorrow_Success(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	rec, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.BookID)
	require.Equal(t, int64(10), rec.MemberID)
	require.True(t, rec.Active())
	require.False(t, rec.BorrowedAt.IsZero())
}

func TestBorrow_BookNotFound(t *testing.T) {
	f := newStore(nil, []int64{10})
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestBorrow_MemberNotFound(t *testing.T) {
	f := newStore([]int64{1}, nil)
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestBorrow_DuplicateBorrow(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), 1, 10)
	require.Error(t, err)
	require.Equal(t, ErrDuplicateBorrow, Code(err))
}

func TestBorrow_AlreadyBorrowed(t *testing.T) {
	f := newStore([]int64{1}, []int64{10, 11})
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), 1, 11)
	require.Error(t, err)
	require.Equal(t, ErrAlreadyBorrowed, Code(err))
}

func TestBorrow_RetriesOnceOnUniqueViolation(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	f.insertErrs = []error{uniqueViolation()}
	svc := newService(f)

	rec, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestBorrow_SecondUniqueViolationIsConflict(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	f.insertErrs = []error{uniqueViolation(), uniqueViolation()}
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.Error(t, err)
	require.Equal(t, ErrConflict, Code(err))
}

func TestReturn_Success(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	first, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	rec, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, first.ID, rec.ID)
	require.NotNil(t, rec.ReturnedAt)
	require.False(t, rec.Active())
}

func TestReturn_ThenBorrowAgainGetsNewRecord(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	first, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)

	second, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestReturn_WrongMember(t *testing.T) {
	f := newStore([]int64{1}, []int64{10, 11})
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), 1, 11)
	require.Error(t, err)
	require.Equal(t, ErrNotBorrowed, Code(err))
}

func TestReturn_NotBorrowed(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	_, err := svc.Return(context.Background(), 1, 10)
	require.Error(t, err)
	require.Equal(t, ErrNotBorrowed, Code(err))
}

// Concurrent borrows on one book must produce exactly one active record.
func TestBorrow_ConcurrentSingleWinner(t *testing.T) {
	const callers = 32

	f := newStore([]int64{1}, nil)
	for i := int64(1); i <= callers; i++ {
		f.members[i] = true
	}
	svc := newService(f)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Borrow(context.Background(), 1, int64(i+1))
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		losses++
		code := Code(err)
		require.Contains(t, []ErrCode{ErrAlreadyBorrowed, ErrConflict}, code)
	}
	require.Equal(t, 1, wins)
	require.Equal(t, callers-1, losses)

	active, err := f.ActiveByBook(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestListActiveForMember(t *testing.T) {
	f := newStore([]int64{1, 2}, []int64{10})
	svc := newService(f)

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), 2, 10)
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)

	rows, err := svc.ListActiveForMember(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0].BookID)
}

func TestListActiveForMember_MemberNotFound(t *testing.T) {
	f := newStore(nil, nil)
	svc := newService(f)

	_, err := svc.ListActiveForMember(context.Background(), 10)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestSetReturnDate(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	rec, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err := svc.SetReturnDate(context.Background(), rec.ID, at)
	require.NoError(t, err)
	require.NotNil(t, updated.ReturnedAt)
	require.True(t, updated.ReturnedAt.Equal(at))

	_, err = svc.SetReturnDate(context.Background(), rec.ID, at)
	require.Error(t, err)
	require.Equal(t, ErrAlreadyReturned, Code(err))
}

func TestSetReturnDate_NotFound(t *testing.T) {
	f := newStore(nil, nil)
	svc := newService(f)

	_, err := svc.SetReturnDate(context.Background(), 99, time.Now())
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestDeleteRecord(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	svc := newService(f)

	rec, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	deleted, err := svc.DeleteRecord(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, deleted.ID)

	_, err = svc.DeleteRecord(context.Background(), rec.ID)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestWithNow(t *testing.T) {
	f := newStore([]int64{1}, []int64{10})
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := New(f, f, f, WithNow(func() time.Time { return fixed }))

	rec, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, rec.BorrowedAt.Equal(fixed))
}
