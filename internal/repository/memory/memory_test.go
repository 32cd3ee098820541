package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/channel"
	"contest-bot/internal/domain/contest"
	"contest-bot/internal/domain/user"
)

func int64p(v int64) *int64 { return &v }

func TestUserRepositoryLedger(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, &user.User{ID: 1, ReferralCode: "AAAA0001", IsParticipant: true}))
	require.NoError(t, repo.Create(ctx, &user.User{ID: 2, ReferralCode: "AAAA0002", IsParticipant: true}))

	assert.ErrorIs(t, repo.Create(ctx, &user.User{ID: 1, ReferralCode: "OTHER001"}), user.ErrAlreadyExists)

	bal, err := repo.Credit(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonReferral, ReferenceUserID: int64p(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal)

	_, err = repo.Credit(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonReferral, ReferenceUserID: int64p(2)})
	assert.ErrorIs(t, err, user.ErrDuplicateCredit)

	bal, err = repo.GrantSubscriptionBonus(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonBonus})
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)

	_, err = repo.GrantSubscriptionBonus(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonBonus})
	assert.ErrorIs(t, err, user.ErrAlreadyGranted)

	history, err := repo.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	var sum int64
	for _, h := range history {
		sum += h.Amount
	}
	u, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, u.Points, sum)
	assert.True(t, u.HasReceivedSubscriptionBonus)
}

func TestUserRepositoryBanExcludesFromRating(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	for i, code := range []string{"AAAA0001", "AAAA0002", "AAAA0003"} {
		require.NoError(t, repo.Create(ctx, &user.User{ID: int64(i + 1), ReferralCode: code, IsParticipant: true}))
	}
	_, err := repo.Credit(ctx, user.PointEntry{UserID: 3, Amount: 20, Reason: user.ReasonBonus})
	require.NoError(t, err)
	_, err = repo.Credit(ctx, user.PointEntry{UserID: 2, Amount: 10, Reason: user.ReasonBonus})
	require.NoError(t, err)

	rank, err := repo.Rank(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	prev, err := repo.Ban(ctx, 3, "fraud")
	require.NoError(t, err)
	assert.Equal(t, int64(20), prev)

	top, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].ID)

	ids, err := repo.RecipientIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	n, err := repo.CountParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.Unban(ctx, 3))
	u, _ := repo.GetByID(ctx, 3)
	assert.False(t, u.IsBanned)
	assert.Zero(t, u.Points)
}

func TestContestRepositorySingleActive(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()
	end := time.Now().Add(24 * time.Hour)

	require.NoError(t, repo.Create(ctx, &contest.Contest{Title: "first", EndDate: end}))
	require.NoError(t, repo.Create(ctx, &contest.Contest{Title: "second", EndDate: end}))
	assert.Equal(t, 1, repo.ActiveCount())

	active, err := repo.Active(ctx, time.Now())
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "second", active.Title)

	expired, err := repo.Active(ctx, end.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, expired)

	last, err := repo.LastFinished(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "first", last.Title)
}

func TestChannelRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewChannelRepository()

	a := &channel.Channel{Ref: "@alpha", ChatID: -1001, Title: "Alpha", IsActive: true}
	b := &channel.Channel{Ref: "@beta", ChatID: -1002, Title: "Beta", IsActive: true}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	assert.ErrorIs(t, repo.Create(ctx, &channel.Channel{Ref: "@alpha"}), channel.ErrAlreadyExists)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "@alpha", active[0].Ref)

	n, err := repo.DeactivateByChatID(ctx, -1002)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	toggled, err := repo.Toggle(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), channel.ErrNotFound)
}
