package memory

import (
	"context"
	"sync"
	"time"

	domain "contest-bot/internal/domain/contest"
)

type ContestRepository struct {
	mu       sync.Mutex
	contests []domain.Contest
}

var _ domain.Repository = (*ContestRepository)(nil)

func NewContestRepository() *ContestRepository {
	return &ContestRepository{}
}

func (r *ContestRepository) Create(_ context.Context, c *domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.contests {
		r.contests[i].IsActive = false
	}
	c.ID = int64(len(r.contests) + 1)
	c.IsActive = true
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.contests = append(r.contests, *c)
	return nil
}

func (r *ContestRepository) Active(_ context.Context, now time.Time) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.contests) - 1; i >= 0; i-- {
		if r.contests[i].RunningAt(now) {
			c := r.contests[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ContestRepository) Update(_ context.Context, id int64, p domain.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return domain.ErrNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Prizes != nil {
		c.Prizes = *p.Prizes
	}
	if p.ImageFileID != nil {
		c.ImageFileID = *p.ImageFileID
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	return nil
}

func (r *ContestRepository) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return domain.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (r *ContestRepository) LastFinished(_ context.Context) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *domain.Contest
	for i := range r.contests {
		c := r.contests[i]
		if c.IsActive {
			continue
		}
		if last == nil || c.EndDate.After(last.EndDate) {
			last = &c
		}
	}
	return last, nil
}

// ActiveCount is the number of contests flagged active, regardless of end date.
func (r *ContestRepository) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.contests {
		if c.IsActive {
			n++
		}
	}
	return n
}

func (r *ContestRepository) find(id int64) *domain.Contest {
	for i := range r.contests {
		if r.contests[i].ID == id {
			return &r.contests[i]
		}
	}
	return nil
}
