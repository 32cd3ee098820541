package postgres

import (
	"context"
	"database/sql"
	"errors"

	domain "contest-bot/internal/domain/user"
)

// UserRepository stores participants and the points ledger in Postgres.
type UserRepository struct {
	db *sql.DB
}

var _ domain.Repository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

const userColumns = `id, COALESCE(username, ''), first_name, last_name, phone, points, referral_code, referred_by,
	is_participant, is_banned, COALESCE(ban_reason, ''), has_received_subscription_bonus, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		referredBy sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.Points, &u.ReferralCode, &referredBy,
		&u.IsParticipant, &u.IsBanned, &u.BanReason, &u.HasReceivedSubscriptionBonus, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if referredBy.Valid {
		v := referredBy.Int64
		u.ReferredBy = &v
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
	INSERT INTO users (id, username, first_name, last_name, phone, referral_code, referred_by, is_participant)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		u.ID, u.Username, u.FirstName, u.LastName, u.Phone, u.ReferralCode, u.ReferredBy, u.IsParticipant,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) getOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code=$1`, code)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE is_participant`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT ` + userColumns + ` FROM users WHERE is_participant ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	users, err := r.query(ctx, q, limit, offset)
	return users, total, err
}

func (r *UserRepository) query(ctx context.Context, q string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountParticipants(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE is_participant AND NOT is_banned`).Scan(&n)
	return n, err
}

func (r *UserRepository) TotalPoints(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(sum(points), 0) FROM users WHERE is_participant`).Scan(&total)
	return total, err
}

func (r *UserRepository) Top(ctx context.Context, limit int) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
	WHERE is_participant AND NOT is_banned
	ORDER BY points DESC, created_at ASC
	LIMIT $1`
	return r.query(ctx, q, limit)
}

func (r *UserRepository) Rank(ctx context.Context, id int64) (int, error) {
	const q = `
	SELECT count(*) + 1 FROM users o, users u
	WHERE u.id = $1 AND o.is_participant AND NOT o.is_banned AND o.points > u.points`
	var rank int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rank)
	return rank, err
}

func (r *UserRepository) CountReferrals(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE referred_by=$1`, id).Scan(&n)
	return n, err
}

func (r *UserRepository) RecipientIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE is_participant AND NOT is_banned ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) Ban(ctx context.Context, id int64, reason string) (int64, error) {
	const q = `
	UPDATE users u SET is_banned = TRUE, ban_reason = NULLIF($2, ''), points = 0, updated_at = now()
	FROM (SELECT id, points FROM users WHERE id = $1 FOR UPDATE) prev
	WHERE u.id = prev.id
	RETURNING prev.points`
	var prev int64
	err := r.db.QueryRowContext(ctx, q, id, reason).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return prev, err
}

func (r *UserRepository) Unban(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_banned = FALSE, ban_reason = NULL, updated_at = now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const insertHistory = `
	INSERT INTO point_history (user_id, amount, reason, reference_user_id, note)
	VALUES ($1, $2, $3, $4, $5)`

// Credit applies the balance change and the audit row in one transaction.
func (r *UserRepository) Credit(ctx context.Context, e domain.PointEntry) (balance int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insertHistory, e.UserID, e.Amount, e.Reason, e.ReferenceUserID, e.Note); err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateCredit
		}
		return 0, err
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1 RETURNING points`,
		e.UserID, e.Amount,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	err = tx.Commit()
	return balance, err
}

// GrantSubscriptionBonus flips the bonus flag, credits and audits in one
// transaction. The conditional update makes concurrent grants race-free.
func (r *UserRepository) GrantSubscriptionBonus(ctx context.Context, e domain.PointEntry) (balance int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
	UPDATE users SET has_received_subscription_bonus = TRUE, points = points + $2, updated_at = now()
	WHERE id = $1 AND NOT has_received_subscription_bonus
	RETURNING points`, e.UserID, e.Amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if qerr := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, e.UserID).Scan(&exists); qerr != nil {
			err = qerr
		} else if exists {
			err = domain.ErrAlreadyGranted
		} else {
			err = domain.ErrNotFound
		}
	}
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, insertHistory, e.UserID, e.Amount, e.Reason, e.ReferenceUserID, e.Note); err != nil {
		return 0, err
	}

	err = tx.Commit()
	return balance, err
}

func (r *UserRepository) History(ctx context.Context, id int64, limit int) ([]domain.PointEntry, error) {
	const q = `
	SELECT id, user_id, amount, reason, reference_user_id, note, created_at
	FROM point_history WHERE user_id=$1
	ORDER BY created_at DESC, id DESC
	LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PointEntry
	for rows.Next() {
		var (
			e   domain.PointEntry
			ref sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Reason, &ref, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			v := ref.Int64
			e.ReferenceUserID = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
