package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/channel"
	domaincontest "contest-bot/internal/domain/contest"
	"contest-bot/internal/repository/memory"
	"contest-bot/internal/service/channels"
	"contest-bot/internal/service/contest"
	"contest-bot/internal/service/ledger"
	"contest-bot/internal/service/user"
)

func TestGet(t *testing.T) {
	ctx := context.Background()

	userRepo := memory.NewUserRepository()
	users := user.NewService(userRepo, ledger.New(userRepo), 5)
	chRepo := memory.NewChannelRepository()
	chs := channels.NewService(chRepo, nil, nil)
	contests := contest.NewService(memory.NewContestRepository(), time.UTC)
	svc := NewService(users, chs, contests)

	st, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *st)

	alice, err := users.Register(ctx, user.Registration{ID: 1, FirstName: "Alice"})
	require.NoError(t, err)
	_, err = users.Register(ctx, user.Registration{ID: 2, FirstName: "Bob", ReferralCode: alice.User.ReferralCode})
	require.NoError(t, err)

	require.NoError(t, chRepo.Create(ctx, &channel.Channel{Ref: "@one", Title: "One", IsActive: true}))
	require.NoError(t, chRepo.Create(ctx, &channel.Channel{Ref: "@two", Title: "Two"}))

	require.NoError(t, contests.Create(ctx, &domaincontest.Contest{
		Title:       "Spring",
		Description: "d",
		Prizes:      "p",
		EndDate:     time.Now().Add(24 * time.Hour),
	}))

	st, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Participants)
	assert.Equal(t, int64(5), st.TotalPoints)
	assert.Equal(t, 2, st.Channels, "inactive channels are counted too")
	assert.True(t, st.ActiveContest)
}
