package borrowrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"librecords/model"
	"librecords/util/database"
)

// HistoryItem is one borrow joined with the book's category, the shape the
// recommendation engine groups over.
type HistoryItem struct {
	BookID     int64     `json:"book_id"`
	Category   string    `json:"category"`
	BorrowedAt time.Time `json:"borrowed_at"`
}

type Repo interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	ActiveByBook(ctx context.Context, bookID int64) (*model.BorrowRecord, error)
	Insert(ctx context.Context, bookID, memberID int64, at time.Time) (*model.BorrowRecord, error)
	MarkReturned(ctx context.Context, recordID int64, at time.Time) (*model.BorrowRecord, error)

	ListActiveByMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error)
	ListActiveMembersByBook(ctx context.Context, bookID int64) ([]model.Member, error)
	HasActiveByBook(ctx context.Context, bookID int64) (bool, error)
	HasActiveByMember(ctx context.Context, memberID int64) (bool, error)

	ByID(ctx context.Context, id int64) (*model.BorrowRecord, error)
	List(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error)
	Delete(ctx context.Context, id int64) (*model.BorrowRecord, error)

	HistoryForMember(ctx context.Context, memberID int64) ([]HistoryItem, error)
	ActiveBookIDs(ctx context.Context, memberID int64) ([]int64, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

const recordCols = `id, book_id, member_id, borrowed_at, returned_at`

func scanRecord(row pgx.Row) (*model.BorrowRecord, error) {
	rec := &model.BorrowRecord{}
	err := row.Scan(&rec.ID, &rec.BookID, &rec.MemberID, &rec.BorrowedAt, &rec.ReturnedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repo) ActiveByBook(ctx context.Context, bookID int64) (*model.BorrowRecord, error) {
	return scanRecord(r.db.Q(ctx).QueryRow(ctx, `
		SELECT `+recordCols+`
		FROM borrow_records
		WHERE book_id = $1 AND returned_at IS NULL`,
		bookID))
}

func (r *repo) Insert(ctx context.Context, bookID, memberID int64, at time.Time) (*model.BorrowRecord, error) {
	return scanRecord(r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO borrow_records (book_id, member_id, borrowed_at)
		VALUES ($1,$2,$3)
		RETURNING `+recordCols,
		bookID, memberID, at))
}

func (r *repo) MarkReturned(ctx context.Context, recordID int64, at time.Time) (*model.BorrowRecord, error) {
	return scanRecord(r.db.Q(ctx).QueryRow(ctx, `
		UPDATE borrow_records
		SET returned_at = $2
		WHERE id = $1 AND returned_at IS NULL
		RETURNING `+recordCols,
		recordID, at))
}

func (r *repo) ListActiveByMember(ctx context.Context, memberID int64) ([]model.BorrowRecord, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+recordCols+`
		FROM borrow_records
		WHERE member_id = $1 AND returned_at IS NULL
		ORDER BY id`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *repo) ListActiveMembersByBook(ctx context.Context, bookID int64) ([]model.Member, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT m.id, m.name, m.email, m.membership_id
		FROM borrow_records r
		JOIN members m ON m.id = r.member_id
		WHERE r.book_id = $1 AND r.returned_at IS NULL
		ORDER BY r.id`,
		bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.MembershipID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) HasActiveByBook(ctx context.Context, bookID int64) (bool, error) {
	var ok bool
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE book_id = $1 AND returned_at IS NULL
		)`, bookID).Scan(&ok)
	return ok, err
}

func (r *repo) HasActiveByMember(ctx context.Context, memberID int64) (bool, error) {
	var ok bool
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE member_id = $1 AND returned_at IS NULL
		)`, memberID).Scan(&ok)
	return ok, err
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	return scanRecord(r.db.Q(ctx).QueryRow(ctx, `
		SELECT `+recordCols+` FROM borrow_records WHERE id = $1`, id))
}

func (r *repo) List(ctx context.Context, offset, limit int) ([]model.BorrowRecord, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM borrow_records ORDER BY id OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *repo) Delete(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	return scanRecord(r.db.Q(ctx).QueryRow(ctx, `
		DELETE FROM borrow_records WHERE id = $1
		RETURNING `+recordCols, id))
}

func (r *repo) HistoryForMember(ctx context.Context, memberID int64) ([]HistoryItem, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT r.book_id, b.category, r.borrowed_at
		FROM borrow_records r
		JOIN books b ON b.id = r.book_id
		WHERE r.member_id = $1
		ORDER BY r.id`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var h HistoryItem
		if err := rows.Scan(&h.BookID, &h.Category, &h.BorrowedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ActiveBookIDs(ctx context.Context, memberID int64) ([]int64, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT book_id FROM borrow_records
		WHERE member_id = $1 AND returned_at IS NULL
		ORDER BY id`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func collectRecords(rows pgx.Rows) ([]model.BorrowRecord, error) {
	var out []model.BorrowRecord
	for rows.Next() {
		var rec model.BorrowRecord
		if err := rows.Scan(&rec.ID, &rec.BookID, &rec.MemberID, &rec.BorrowedAt, &rec.ReturnedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
