package user

import "context"

// Repository defines persistence operations for the User aggregate and its
// points ledger. Get* methods return (nil, nil) when the user is absent.
type Repository interface {
	// Create inserts a new participant. ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	// List returns participants ordered by created_at desc, with the total.
	List(ctx context.Context, limit, offset int) ([]User, int, error)

	// CountParticipants counts non-banned participants.
	CountParticipants(ctx context.Context) (int, error)
	TotalPoints(ctx context.Context) (int64, error)
	// Top returns non-banned participants by points desc.
	Top(ctx context.Context, limit int) ([]User, error)
	// Rank is 1 + the number of non-banned participants with more points.
	Rank(ctx context.Context, id int64) (int, error)
	CountReferrals(ctx context.Context, id int64) (int, error)
	// RecipientIDs snapshots the IDs of every non-banned participant.
	RecipientIDs(ctx context.Context) ([]int64, error)

	// Ban sets the ban flag, stores reason and zeroes points in one
	// statement. Returns the balance before the reset.
	Ban(ctx context.Context, id int64, reason string) (int64, error)
	Unban(ctx context.Context, id int64) error

	// Credit adds entry.Amount to the user's balance and appends entry in
	// one transaction. Referral credits are unique per reference user.
	Credit(ctx context.Context, entry PointEntry) (int64, error)
	// GrantSubscriptionBonus flips HasReceivedSubscriptionBonus, credits
	// entry.Amount and appends entry in one transaction. ErrAlreadyGranted
	// when the flag was already set.
	GrantSubscriptionBonus(ctx context.Context, entry PointEntry) (int64, error)
	History(ctx context.Context, id int64, limit int) ([]PointEntry, error)
}
