package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/config"
	"contest-bot/internal/domain/contest"
	"contest-bot/internal/domain/user"
	pgclient "contest-bot/internal/platform/postgres"
	"contest-bot/internal/repository/postgres/migrations"
)

// openTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *pgclient.Client {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := &config.Config{}
	cfg.Postgres.DSN = dsn
	cfg.Postgres.MaxOpenConns = 5
	cfg.Postgres.MaxIdleConns = 1
	cfg.Postgres.ConnMaxLifetime = time.Minute

	ctx := context.Background()
	client, err := pgclient.NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Migrate(ctx, migrations.FS))
	_, err = client.GetDB().ExecContext(ctx,
		`TRUNCATE point_history, users, channels, contests, broadcast_logs, settings RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return client
}

func TestUserRepositoryCreditIsExactlyOnce(t *testing.T) {
	client := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(client.GetDB())

	require.NoError(t, repo.Create(ctx, &user.User{ID: 1, FirstName: "A", ReferralCode: "AAAA0001", IsParticipant: true}))
	referrer := int64(1)
	require.NoError(t, repo.Create(ctx, &user.User{ID: 2, FirstName: "B", ReferralCode: "AAAA0002", ReferredBy: &referrer, IsParticipant: true}))

	ref := int64(2)
	bal, err := repo.Credit(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonReferral, ReferenceUserID: &ref})
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal)

	_, err = repo.Credit(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonReferral, ReferenceUserID: &ref})
	assert.ErrorIs(t, err, user.ErrDuplicateCredit)

	_, err = repo.GrantSubscriptionBonus(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonBonus})
	require.NoError(t, err)
	_, err = repo.GrantSubscriptionBonus(ctx, user.PointEntry{UserID: 1, Amount: 5, Reason: user.ReasonBonus})
	assert.ErrorIs(t, err, user.ErrAlreadyGranted)

	u, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.Points)

	history, err := repo.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	prev, err := repo.Ban(ctx, 1, "fraud")
	require.NoError(t, err)
	assert.Equal(t, int64(10), prev)
}

func TestContestRepositoryCreateDeactivatesPrevious(t *testing.T) {
	client := openTestDB(t)
	ctx := context.Background()
	repo := NewContestRepository(client.GetDB())
	end := time.Now().Add(time.Hour)

	require.NoError(t, repo.Create(ctx, &contest.Contest{Title: "one", Description: "d", Prizes: "p", EndDate: end}))
	require.NoError(t, repo.Create(ctx, &contest.Contest{Title: "two", Description: "d", Prizes: "p", EndDate: end}))

	var active int
	require.NoError(t, client.GetDB().QueryRowContext(ctx, `SELECT count(*) FROM contests WHERE is_active`).Scan(&active))
	assert.Equal(t, 1, active)

	c, err := repo.Active(ctx, time.Now())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "two", c.Title)
}
