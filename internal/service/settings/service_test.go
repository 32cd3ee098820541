package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/setting"
	"contest-bot/internal/repository/memory"
)

func TestDefaultsAndOverride(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSettingRepository())

	terms, err := svc.Get(ctx, setting.KeyTerms)
	require.NoError(t, err)
	assert.Equal(t, DefaultTerms, terms)

	saved, err := svc.Set(ctx, setting.KeyContact, "  write to @support  ")
	require.NoError(t, err)
	assert.Equal(t, "write to @support", saved)

	contact, err := svc.Get(ctx, setting.KeyContact)
	require.NoError(t, err)
	assert.Equal(t, "write to @support", contact)
}

func TestSetRejectsEmptyAndUnknown(t *testing.T) {
	svc := NewService(memory.NewSettingRepository())

	_, err := svc.Set(context.Background(), setting.KeyTerms, "   ")
	assert.ErrorIs(t, err, validation.ErrEmpty)

	_, err = svc.Set(context.Background(), "motd", "hi")
	assert.Error(t, err)
}
