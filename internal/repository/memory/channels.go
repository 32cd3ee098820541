package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "contest-bot/internal/domain/channel"
)

type ChannelRepository struct {
	mu       sync.Mutex
	channels map[int64]domain.Channel
	nextID   int64
}

var _ domain.Repository = (*ChannelRepository)(nil)

func NewChannelRepository() *ChannelRepository {
	return &ChannelRepository{channels: map[int64]domain.Channel{}}
}

func (r *ChannelRepository) Create(_ context.Context, c *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.channels {
		if other.Ref == c.Ref {
			return domain.ErrAlreadyExists
		}
	}
	r.nextID++
	c.ID = r.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.channels[c.ID] = *c
	return nil
}

func (r *ChannelRepository) GetByID(_ context.Context, id int64) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ChannelRepository) GetByRef(_ context.Context, ref string) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if c.Ref == ref {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ChannelRepository) ListActive(_ context.Context) ([]domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Channel, 0, len(r.channels))
	for _, c := range r.channels {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ChannelRepository) ListAll(_ context.Context) ([]domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *ChannelRepository) Toggle(_ context.Context, id int64) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.IsActive = !c.IsActive
	r.channels[id] = c
	return &c, nil
}

func (r *ChannelRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.channels, id)
	return nil
}

func (r *ChannelRepository) DeactivateByChatID(_ context.Context, chatID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.channels {
		if c.ChatID == chatID && c.IsActive {
			c.IsActive = false
			r.channels[id] = c
			n++
		}
	}
	return n, nil
}
