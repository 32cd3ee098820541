// Package ledger is the only writer of user point balances.
package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/domain/user"
)

// Ledger applies point changes together with their audit rows.
type Ledger struct {
	users user.Repository
	log   zerolog.Logger
}

func New(users user.Repository) *Ledger {
	return &Ledger{users: users, log: logger.Component("ledger")}
}

// Credit adds amount to userID's balance and records it, atomically.
// A referral credit for a reference that was already credited returns
// user.ErrDuplicateCredit and changes nothing.
func (l *Ledger) Credit(ctx context.Context, userID, amount int64, reason user.Reason, reference *int64, note string) (int64, error) {
	if amount == 0 {
		return 0, apperrors.NewValidationError("amount", "must not be zero")
	}
	balance, err := l.users.Credit(ctx, user.PointEntry{
		UserID:          userID,
		Amount:          amount,
		Reason:          reason,
		ReferenceUserID: reference,
		Note:            note,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateCredit) || errors.Is(err, user.ErrNotFound) {
			return 0, err
		}
		return 0, apperrors.NewDatabaseError("credit points", err).WithUserID(userID)
	}

	l.log.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Str("reason", string(reason)).
		Int64("balance", balance).
		Msg("Points credited")
	return balance, nil
}

// CreditReferral credits referrerID for bringing in newUserID.
func (l *Ledger) CreditReferral(ctx context.Context, referrerID, newUserID, amount int64) (int64, error) {
	if referrerID == newUserID {
		return 0, apperrors.NewInvariantError("self-referral", errors.New("referrer equals referred user")).WithUserID(referrerID)
	}
	ref := newUserID
	return l.Credit(ctx, referrerID, amount, user.ReasonReferral, &ref, "referral")
}

// GrantOnce pays the one-shot subscription bonus. The flag flip, the
// increment and the audit row commit together; a repeat call returns
// user.ErrAlreadyGranted.
func (l *Ledger) GrantOnce(ctx context.Context, userID, amount int64, note string) (int64, error) {
	balance, err := l.users.GrantSubscriptionBonus(ctx, user.PointEntry{
		UserID: userID,
		Amount: amount,
		Reason: user.ReasonBonus,
		Note:   note,
	})
	if err != nil {
		if errors.Is(err, user.ErrAlreadyGranted) || errors.Is(err, user.ErrNotFound) {
			return 0, err
		}
		return 0, apperrors.NewDatabaseError("grant bonus", err).WithUserID(userID)
	}

	l.log.Info().Int64("user_id", userID).Int64("amount", amount).Int64("balance", balance).Msg("Subscription bonus granted")
	return balance, nil
}

// Ban blocks a user and resets their balance to zero. The reset bypasses
// the audit trail and is logged with the balance it discarded.
func (l *Ledger) Ban(ctx context.Context, operatorID, userID int64, reason string) error {
	prev, err := l.users.Ban(ctx, userID, reason)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperrors.NewUserNotFoundError(userID)
		}
		return apperrors.NewDatabaseError("ban user", err).WithUserID(userID)
	}
	l.log.Warn().
		Int64("operator_id", operatorID).
		Int64("user_id", userID).
		Int64("discarded_points", prev).
		Str("reason", reason).
		Msg("User banned, points reset")
	return nil
}

// Unban clears the ban flags. Points stay at zero.
func (l *Ledger) Unban(ctx context.Context, operatorID, userID int64) error {
	if err := l.users.Unban(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperrors.NewUserNotFoundError(userID)
		}
		return apperrors.NewDatabaseError("unban user", err).WithUserID(userID)
	}
	l.log.Info().Int64("operator_id", operatorID).Int64("user_id", userID).Msg("User unbanned")
	return nil
}
