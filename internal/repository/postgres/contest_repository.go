package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "contest-bot/internal/domain/contest"
)

type ContestRepository struct {
	db *sql.DB
}

var _ domain.Repository = (*ContestRepository)(nil)

func NewContestRepository(db *sql.DB) *ContestRepository { return &ContestRepository{db: db} }

const contestColumns = `id, title, description, prizes, COALESCE(image_file_id, ''), end_date, is_active, created_at`

func scanContest(row rowScanner) (*domain.Contest, error) {
	var c domain.Contest
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Prizes, &c.ImageFileID, &c.EndDate, &c.IsActive, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create deactivates the current contest and inserts the new one in a single
// transaction; the partial unique index rejects a second active row.
func (r *ContestRepository) Create(ctx context.Context, c *domain.Contest) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE contests SET is_active = FALSE WHERE is_active`); err != nil {
		return err
	}

	const q = `
	INSERT INTO contests (title, description, prizes, image_file_id, end_date, is_active)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, TRUE)
	RETURNING id, created_at`
	if err = tx.QueryRowContext(ctx, q, c.Title, c.Description, c.Prizes, c.ImageFileID, c.EndDate).Scan(&c.ID, &c.CreatedAt); err != nil {
		return err
	}
	c.IsActive = true

	return tx.Commit()
}

func (r *ContestRepository) Active(ctx context.Context, now time.Time) (*domain.Contest, error) {
	const q = `SELECT ` + contestColumns + ` FROM contests
	WHERE is_active AND end_date >= $1
	ORDER BY created_at DESC LIMIT 1`
	return scanContest(r.db.QueryRowContext(ctx, q, now))
}

func (r *ContestRepository) Update(ctx context.Context, id int64, p domain.Patch) error {
	const q = `
	UPDATE contests SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		prizes = COALESCE($4, prizes),
		image_file_id = COALESCE($5, image_file_id),
		end_date = COALESCE($6, end_date)
	WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, p.Title, p.Description, p.Prizes, p.ImageFileID, p.EndDate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ContestRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contests SET is_active = FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ContestRepository) LastFinished(ctx context.Context) (*domain.Contest, error) {
	const q = `SELECT ` + contestColumns + ` FROM contests WHERE NOT is_active ORDER BY end_date DESC LIMIT 1`
	return scanContest(r.db.QueryRowContext(ctx, q))
}
