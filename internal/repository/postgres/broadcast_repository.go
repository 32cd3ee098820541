package postgres

import (
	"context"
	"database/sql"

	domain "contest-bot/internal/domain/broadcast"
)

type BroadcastRepository struct {
	db *sql.DB
}

var _ domain.Repository = (*BroadcastRepository)(nil)

func NewBroadcastRepository(db *sql.DB) *BroadcastRepository { return &BroadcastRepository{db: db} }

func (r *BroadcastRepository) Save(ctx context.Context, l *domain.Log) error {
	const q = `
	INSERT INTO broadcast_logs (operator_id, kind, content, sent_count, failed_count)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, l.OperatorID, l.Kind, l.Content, l.SentCount, l.FailedCount).Scan(&l.ID, &l.CreatedAt)
}

func (r *BroadcastRepository) List(ctx context.Context, limit int) ([]domain.Log, error) {
	const q = `
	SELECT id, operator_id, kind, content, sent_count, failed_count, created_at
	FROM broadcast_logs ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Log
	for rows.Next() {
		var l domain.Log
		if err := rows.Scan(&l.ID, &l.OperatorID, &l.Kind, &l.Content, &l.SentCount, &l.FailedCount, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
