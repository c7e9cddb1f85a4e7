package requestlogrepo

import (
	"context"

	"librecords/model"
	"librecords/util/database"
)

type Repo interface {
	Insert(ctx context.Context, rec *model.RequestLog) error
	List(ctx context.Context, offset, limit int) ([]model.RequestLog, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, rec *model.RequestLog) error {
	return r.db.Q(ctx).QueryRow(ctx, `
		INSERT INTO request_logs (username, method, path, status_code, duration_ms, request_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		rec.Username, rec.Method, rec.Path, rec.StatusCode, rec.DurationMs, rec.RequestID,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *repo) List(ctx context.Context, offset, limit int) ([]model.RequestLog, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `
		SELECT id, username, method, path, status_code, duration_ms, request_id, created_at
		FROM request_logs
		ORDER BY id DESC
		OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RequestLog
	for rows.Next() {
		var rec model.RequestLog
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Method, &rec.Path,
			&rec.StatusCode, &rec.DurationMs, &rec.RequestID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
