package postgres

import (
	"context"
	"database/sql"
	"errors"

	"contest-bot/internal/domain/setting"
)

type SettingRepository struct {
	db *sql.DB
}

var _ setting.Repository = (*SettingRepository)(nil)

func NewSettingRepository(db *sql.DB) *SettingRepository { return &SettingRepository{db: db} }

func (r *SettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	const q = `
	INSERT INTO settings (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}
