package memberrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"librecords/model"
	"librecords/util/database"
)

type Repo interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, m *model.Member) error
	ByID(ctx context.Context, id int64) (*model.Member, error)
	Update(ctx context.Context, id int64, patch model.MemberUpdate) (*model.Member, error)
	Delete(ctx context.Context, id int64) (*model.Member, error)
	List(ctx context.Context, offset, limit int) ([]model.Member, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

const memberCols = `id, name, email, membership_id`

func (r *repo) Create(ctx context.Context, m *model.Member) error {
	return r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO members (name, email, membership_id)
		VALUES ($1,$2,$3)
		RETURNING id`,
		m.Name, m.Email, m.MembershipID,
	).Scan(&m.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Member, error) {
	m := &model.Member{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT `+memberCols+` FROM members WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.MembershipID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) Update(ctx context.Context, id int64, patch model.MemberUpdate) (*model.Member, error) {
	m := &model.Member{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		UPDATE members SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			membership_id = COALESCE($4, membership_id)
		WHERE id = $1
		RETURNING `+memberCols,
		id, patch.Name, patch.Email, patch.MembershipID,
	).Scan(&m.ID, &m.Name, &m.Email, &m.MembershipID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (*model.Member, error) {
	m := &model.Member{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		DELETE FROM members WHERE id = $1
		RETURNING `+memberCols, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.MembershipID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) List(ctx context.Context, offset, limit int) ([]model.Member, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT `+memberCols+` FROM members ORDER BY id OFFSET $1 LIMIT $2`,
		offset, limit)
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

func (r *repo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, id,
	).Scan(&ok)
	return ok, err
}
