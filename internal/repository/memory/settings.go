package memory

import (
	"context"
	"sync"

	"contest-bot/internal/domain/setting"
)

type SettingRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ setting.Repository = (*SettingRepository)(nil)

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{values: map[string]string{}}
}

func (r *SettingRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *SettingRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}
