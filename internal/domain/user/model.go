package user

import (
	"errors"
	"time"

	"contest-bot/internal/utils/random"
)

// User is a contest participant. ID is the Telegram user ID.
// Points change only through ledger operations and the ban reset;
// HasReceivedSubscriptionBonus flips once, together with the bonus credit.
type User struct {
	ID                           int64     `json:"id"`
	Username                     string    `json:"username"`
	FirstName                    string    `json:"first_name"`
	LastName                     string    `json:"last_name"`
	Phone                        string    `json:"phone"`
	Points                       int64     `json:"points"`
	ReferralCode                 string    `json:"referral_code"`
	ReferredBy                   *int64    `json:"referred_by,omitempty"`
	IsParticipant                bool      `json:"is_participant"`
	IsBanned                     bool      `json:"is_banned"`
	BanReason                    string    `json:"ban_reason,omitempty"`
	HasReceivedSubscriptionBonus bool      `json:"has_received_subscription_bonus"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// DisplayName is "@username" when set, first name otherwise.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}

// Reason tags a PointEntry.
type Reason string

const (
	ReasonReferral Reason = "referral"
	ReasonBonus    Reason = "bonus"
)

// PointEntry is one append-only row of the points audit trail.
type PointEntry struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Amount          int64     `json:"amount"`
	Reason          Reason    `json:"reason"`
	ReferenceUserID *int64    `json:"reference_user_id,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrAlreadyExists  = errors.New("user already exists")
	ErrAlreadyGranted = errors.New("one-shot bonus already granted")

	// ErrDuplicateCredit is returned when a referral credit for the same
	// referred user was already applied.
	ErrDuplicateCredit = errors.New("referral already credited")
)

const (
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferralCodeLength   = 8
)

// NewReferralCode returns a random 8 character code over A-Z0-9.
func NewReferralCode() (string, error) {
	return random.String(referralCodeAlphabet, ReferralCodeLength)
}
