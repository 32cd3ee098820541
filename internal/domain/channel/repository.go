package channel

import "context"

// Repository defines persistence operations for gating channels.
type Repository interface {
	// Create inserts c and sets its ID. ErrAlreadyExists on duplicate Ref.
	Create(ctx context.Context, c *Channel) error
	GetByID(ctx context.Context, id int64) (*Channel, error)
	GetByRef(ctx context.Context, ref string) (*Channel, error)
	// ListActive returns active channels in the order they were added.
	ListActive(ctx context.Context) ([]Channel, error)
	// ListAll returns every channel, newest first.
	ListAll(ctx context.Context) ([]Channel, error)
	// Toggle flips IsActive and returns the updated channel.
	Toggle(ctx context.Context, id int64) (*Channel, error)
	Delete(ctx context.Context, id int64) error
	// DeactivateByChatID switches off every channel with the given numeric
	// chat id and reports how many rows changed.
	DeactivateByChatID(ctx context.Context, chatID int64) (int, error)
}
