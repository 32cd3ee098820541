package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Sessions expire after ttl of
// inactivity; zero ttl keeps them forever.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64][]byte
	touched  map[int64]time.Time
	locks    map[int64]chan struct{}
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[int64][]byte{},
		touched:  map[int64]time.Time{},
		locks:    map[int64]chan struct{}{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	raw, ok := m.sessions[userID]
	if ok && m.ttl > 0 && m.now().Sub(m.touched[userID]) > m.ttl {
		delete(m.sessions, userID)
		delete(m.touched, userID)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return idle(userID), nil
	}
	return Unmarshal(userID, raw)
}

// Save stores a copy of s, so later mutations of s are not visible until
// saved again.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	now := m.now()
	s.UpdatedAt = now
	raw, err := Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.UserID] = raw
	m.touched[s.UserID] = now
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Reset(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	delete(m.touched, userID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, userID int64) (func(), error) {
	m.mu.Lock()
	ch, ok := m.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[userID] = ch
	}
	m.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ErrLocked
	}
}
