package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "contest-bot/internal/domain/user"
)

// UserRepository keeps users and their points history in process memory.
type UserRepository struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	history  []domain.PointEntry
	credited map[int64]struct{}
	nextID   int64
}

var _ domain.Repository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:    map[int64]domain.User{},
		credited: map[int64]struct{}{},
	}
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, other := range r.users {
		if other.ReferralCode == u.ReferralCode {
			return domain.ErrAlreadyExists
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ReferralCode == code {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(func(u domain.User) bool { return u.IsParticipant })
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return []domain.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *UserRepository) CountParticipants(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filter(eligible)), nil
}

func (r *UserRepository) TotalPoints(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, u := range r.users {
		if u.IsParticipant {
			total += u.Points
		}
	}
	return total, nil
}

func (r *UserRepository) Top(_ context.Context, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(eligible)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *UserRepository) Rank(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	rank := 1
	for _, other := range r.users {
		if eligible(other) && other.Points > u.Points {
			rank++
		}
	}
	return rank, nil
}

func (r *UserRepository) CountReferrals(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.ReferredBy != nil && *u.ReferredBy == id {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) RecipientIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(eligible)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	ids := make([]int64, 0, len(all))
	for _, u := range all {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r *UserRepository) Ban(_ context.Context, id int64, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	prev := u.Points
	u.IsBanned = true
	u.BanReason = reason
	u.Points = 0
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return prev, nil
}

func (r *UserRepository) Unban(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsBanned = false
	u.BanReason = ""
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return nil
}

func (r *UserRepository) Credit(_ context.Context, e domain.PointEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[e.UserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if e.Reason == domain.ReasonReferral && e.ReferenceUserID != nil {
		if _, dup := r.credited[*e.ReferenceUserID]; dup {
			return 0, domain.ErrDuplicateCredit
		}
		r.credited[*e.ReferenceUserID] = struct{}{}
	}
	return r.apply(u, e), nil
}

func (r *UserRepository) GrantSubscriptionBonus(_ context.Context, e domain.PointEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[e.UserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if u.HasReceivedSubscriptionBonus {
		return 0, domain.ErrAlreadyGranted
	}
	u.HasReceivedSubscriptionBonus = true
	return r.apply(u, e), nil
}

func (r *UserRepository) History(_ context.Context, id int64, limit int) ([]domain.PointEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PointEntry, 0)
	for i := len(r.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r.history[i].UserID == id {
			out = append(out, r.history[i])
		}
	}
	return out, nil
}

// apply must be called with mu held.
func (r *UserRepository) apply(u domain.User, e domain.PointEntry) int64 {
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now()
	r.history = append(r.history, e)

	u.Points += e.Amount
	u.UpdatedAt = e.CreatedAt
	r.users[u.ID] = u
	return u.Points
}

func (r *UserRepository) filter(keep func(domain.User) bool) []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

func eligible(u domain.User) bool {
	return u.IsParticipant && !u.IsBanned
}
