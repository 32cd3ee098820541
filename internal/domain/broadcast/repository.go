package broadcast

import "context"

// Repository persists broadcast summaries.
type Repository interface {
	Save(ctx context.Context, l *Log) error
	// List returns the latest logs, newest first.
	List(ctx context.Context, limit int) ([]Log, error)
}
