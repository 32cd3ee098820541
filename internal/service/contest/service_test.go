package contest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "contest-bot/internal/domain/contest"
	"contest-bot/internal/repository/memory"
)

func newService(now time.Time) (*Service, *memory.ContestRepository) {
	repo := memory.NewContestRepository()
	svc := NewService(repo, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestCreateKeepsSingleActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newService(now)
	ctx := context.Background()

	for _, title := range []string{"First", "Second"} {
		c := &domain.Contest{Title: title, Description: "d", Prizes: "p", EndDate: now.Add(time.Hour)}
		require.NoError(t, svc.Create(ctx, c))
	}

	assert.Equal(t, 1, repo.ActiveCount())
	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "Second", active.Title)
}

func TestCreateValidates(t *testing.T) {
	now := time.Now()
	svc, _ := newService(now)

	err := svc.Create(context.Background(), &domain.Contest{Title: " ", Description: "d", Prizes: "p", EndDate: now.Add(time.Hour)})
	assert.Error(t, err)

	err = svc.Create(context.Background(), &domain.Contest{Title: "t", Description: "d", Prizes: "p", EndDate: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, domain.ErrDateInPast)
}

func TestActiveExpiresAtEndDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(now)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &domain.Contest{Title: "t", Description: "d", Prizes: "p", EndDate: now.Add(time.Minute)}))

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestUpdateAndStop(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(now)
	ctx := context.Background()

	_, err := svc.UpdateActive(ctx, domain.Patch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Create(ctx, &domain.Contest{Title: "t", Description: "d", Prizes: "p", EndDate: now.Add(time.Hour)}))

	title := "Renamed"
	updated, err := svc.UpdateActive(ctx, domain.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	stopped, err := svc.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stopped.Title)

	last, err := svc.LastFinished(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, stopped.ID, last.ID)
}
