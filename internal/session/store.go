package session

import (
	"context"
	"errors"
)

// ErrLocked is returned when a user's session lock could not be acquired
// before the context expired.
var ErrLocked = errors.New("session is locked")

// Store persists sessions. Get never returns a nil session: a user without
// a stored record is Idle.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Reset(ctx context.Context, userID int64) error
	// Lock serialises read-modify-write cycles on one user's session.
	// The returned func releases the lock.
	Lock(ctx context.Context, userID int64) (func(), error)
}

func idle(userID int64) *Session {
	return &Session{UserID: userID, State: Idle{}}
}
