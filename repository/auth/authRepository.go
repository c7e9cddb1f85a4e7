package authrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"librecords/model"
	"librecords/util/database"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1,$2)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE lower(username) = lower($1)`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := r.db.Q(ctx).QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
