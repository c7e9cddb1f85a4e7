package reviewrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"librecords/model"
	"librecords/util/database"
)

type Repo interface {
	Create(ctx context.Context, rv *model.Review) error
	ByID(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, id int64) (*model.Review, error)
	List(ctx context.Context, offset, limit int) ([]model.Review, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

const reviewCols = `id, book_id, member_id, rating, comment`

func scan(row pgx.Row) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(&rv.ID, &rv.BookID, &rv.MemberID, &rv.Rating, &rv.Comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *repo) Create(ctx context.Context, rv *model.Review) error {
	return r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO reviews (book_id, member_id, rating, comment)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		rv.BookID, rv.MemberID, rv.Rating, rv.Comment,
	).Scan(&rv.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Review, error) {
	return scan(r.db.Q(ctx).QueryRow(ctx, `
		SELECT `+reviewCols+` FROM reviews WHERE id = $1`, id))
}

func (r *repo) Update(ctx context.Context, id int64, patch model.ReviewUpdate) (*model.Review, error) {
	return scan(r.db.Q(ctx).QueryRow(ctx, `
		UPDATE reviews SET
			rating  = COALESCE($2, rating),
			comment = COALESCE($3, comment)
		WHERE id = $1
		RETURNING `+reviewCols,
		id, patch.Rating, patch.Comment))
}

func (r *repo) Delete(ctx context.Context, id int64) (*model.Review, error) {
	return scan(r.db.Q(ctx).QueryRow(ctx, `
		DELETE FROM reviews WHERE id = $1
		RETURNING `+reviewCols, id))
}

func (r *repo) List(ctx context.Context, offset, limit int) ([]model.Review, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+reviewCols+` FROM reviews ORDER BY id OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.MemberID, &rv.Rating, &rv.Comment); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
