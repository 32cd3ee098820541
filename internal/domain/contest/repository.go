package contest

import (
	"context"
	"time"
)

// Repository defines persistence operations for contests.
type Repository interface {
	// Create deactivates any active contest and inserts c as the active one
	// in a single transaction.
	Create(ctx context.Context, c *Contest) error
	// Active returns the active contest whose end date is not before now,
	// or nil.
	Active(ctx context.Context, now time.Time) (*Contest, error)
	Update(ctx context.Context, id int64, p Patch) error
	Deactivate(ctx context.Context, id int64) error
	// LastFinished returns the most recently ended inactive contest, or nil.
	LastFinished(ctx context.Context) (*Contest, error)
}
