package memory

import (
	"context"
	"sync"
	"time"

	domain "contest-bot/internal/domain/broadcast"
)

type BroadcastRepository struct {
	mu   sync.Mutex
	logs []domain.Log
}

var _ domain.Repository = (*BroadcastRepository)(nil)

func NewBroadcastRepository() *BroadcastRepository {
	return &BroadcastRepository{}
}

func (r *BroadcastRepository) Save(_ context.Context, l *domain.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = int64(len(r.logs) + 1)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	r.logs = append(r.logs, *l)
	return nil
}

func (r *BroadcastRepository) List(_ context.Context, limit int) ([]domain.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Log, 0, limit)
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.logs[i])
	}
	return out, nil
}
