package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/broadcast"
)

func TestMemoryStoreDefaultsToIdle(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	s, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, KindIdle, s.State.Kind())
	assert.False(t, IsAdminFlow(s.State))
}

func TestMemoryStoreKeepsComposerDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	composer := BroadcastComposer{
		Step: StepBroadcastButtonURL,
		Draft: broadcast.Message{
			Kind:        broadcast.KindPhoto,
			Text:        "caption",
			MediaFileID: "file-1",
			Buttons:     []broadcast.Button{{Text: "Site", URL: "https://example.com"}},
		},
		PendingButtonName: "Shop",
	}
	require.NoError(t, store.Save(ctx, &Session{UserID: 1, State: composer}))

	s, err := store.Get(ctx, 1)
	require.NoError(t, err)
	got, ok := s.State.(BroadcastComposer)
	require.True(t, ok)
	assert.Equal(t, composer, got)
	assert.Equal(t, StepBroadcastButtonURL, s.State.AdminStep())
}

func TestMemoryStoreExpiresSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &Session{UserID: 1, State: ChannelInput{}}))

	now = now.Add(2 * time.Minute)
	s, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, s.State.Kind())
}

func TestResetClearsDrafts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	wizard := ContestWizard{Step: StepContestPrizes, Draft: ContestDraft{Title: "T", Description: "D"}}
	require.NoError(t, store.Save(ctx, &Session{UserID: 3, State: wizard}))
	require.NoError(t, store.Reset(ctx, 3))

	s, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, s.State)
}

func TestRegistrationIsNeverAnAdminStep(t *testing.T) {
	states := []State{
		Idle{},
		Registering{Stage: AwaitingPhone, ReferralCode: "ABCD1234"},
		Registering{Stage: AwaitingSubscribe},
	}
	for _, st := range states {
		assert.Equal(t, StepNone, st.AdminStep(), st.Kind())
	}

	assert.Equal(t, StepAddChannel, ChannelInput{}.AdminStep())
	assert.Equal(t, StepEditContact, SettingEdit{Step: StepEditContact}.AdminStep())
	assert.Equal(t, "contact", SettingEdit{Step: StepEditContact}.Key())
	assert.Equal(t, "terms", SettingEdit{Step: StepEditTerms}.Key())
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	_, err := Unmarshal(1, []byte(`{"kind":"bogus"}`))
	assert.Error(t, err)
}

func TestMemoryLockIsExclusive(t *testing.T) {
	store := NewMemoryStore(0)

	unlock, err := store.Lock(context.Background(), 9)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = store.Lock(ctx, 9)
	assert.ErrorIs(t, err, ErrLocked)

	// другой пользователь не блокируется
	unlockOther, err := store.Lock(context.Background(), 10)
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock2, err := store.Lock(context.Background(), 9)
	require.NoError(t, err)
	unlock2()
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, time.Minute, time.Second)
	userID := time.Now().UnixNano()
	t.Cleanup(func() { _ = store.Reset(ctx, userID) })

	require.NoError(t, store.Save(ctx, &Session{UserID: userID, State: Registering{Stage: AwaitingSubscribe, ReferralCode: "XY"}}))
	s, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, Registering{Stage: AwaitingSubscribe, ReferralCode: "XY"}, s.State)

	ttl, err := rdb.TTL(ctx, key(userID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	unlock, err := store.Lock(ctx, userID)
	require.NoError(t, err)
	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = store.Lock(short, userID)
	assert.ErrorIs(t, err, ErrLocked)
	unlock()

	unlock, err = store.Lock(ctx, userID)
	require.NoError(t, err)
	unlock()
}
