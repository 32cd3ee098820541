package postgres

import (
	"context"
	"database/sql"
	"errors"

	domain "contest-bot/internal/domain/channel"
)

type ChannelRepository struct {
	db *sql.DB
}

var _ domain.Repository = (*ChannelRepository)(nil)

func NewChannelRepository(db *sql.DB) *ChannelRepository { return &ChannelRepository{db: db} }

const channelColumns = `id, ref, chat_id, title, is_active, is_private, COALESCE(invite_link, ''), created_at`

func scanChannel(row rowScanner) (*domain.Channel, error) {
	var c domain.Channel
	if err := row.Scan(&c.ID, &c.Ref, &c.ChatID, &c.Title, &c.IsActive, &c.IsPrivate, &c.InviteLink, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChannelRepository) Create(ctx context.Context, c *domain.Channel) error {
	const q = `
	INSERT INTO channels (ref, chat_id, title, is_active, is_private, invite_link)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q, c.Ref, c.ChatID, c.Title, c.IsActive, c.IsPrivate, c.InviteLink).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *ChannelRepository) getOne(ctx context.Context, q string, arg any) (*domain.Channel, error) {
	c, err := scanChannel(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *ChannelRepository) GetByID(ctx context.Context, id int64) (*domain.Channel, error) {
	return r.getOne(ctx, `SELECT `+channelColumns+` FROM channels WHERE id=$1`, id)
}

func (r *ChannelRepository) GetByRef(ctx context.Context, ref string) (*domain.Channel, error) {
	return r.getOne(ctx, `SELECT `+channelColumns+` FROM channels WHERE ref=$1`, ref)
}

func (r *ChannelRepository) list(ctx context.Context, q string) ([]domain.Channel, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ChannelRepository) ListActive(ctx context.Context) ([]domain.Channel, error) {
	return r.list(ctx, `SELECT `+channelColumns+` FROM channels WHERE is_active ORDER BY created_at ASC, id ASC`)
}

func (r *ChannelRepository) ListAll(ctx context.Context) ([]domain.Channel, error) {
	return r.list(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY created_at DESC, id DESC`)
}

func (r *ChannelRepository) Toggle(ctx context.Context, id int64) (*domain.Channel, error) {
	c, err := scanChannel(r.db.QueryRowContext(ctx,
		`UPDATE channels SET is_active = NOT is_active WHERE id=$1 RETURNING `+channelColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

func (r *ChannelRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) DeactivateByChatID(ctx context.Context, chatID int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE channels SET is_active = FALSE WHERE chat_id=$1 AND is_active`, chatID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
