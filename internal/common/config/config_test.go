package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "100, 200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.Points.PerReferral)
	assert.Equal(t, int64(5), cfg.Points.SubscriptionBonus)
	assert.Equal(t, 30, cfg.Broadcast.RatePerSecond)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.PostgresEnabled())

	ids, err := cfg.AdminIDList()
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, ids)
}

func TestLoadRejectsBadAdminID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "100,abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestAccessorsReportBadValues(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.AdminIDs = []string{"42", " "}
	ids, err := cfg.AdminIDList()
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)

	cfg.Telegram.AdminIDs = []string{"x"}
	_, err = cfg.AdminIDList()
	assert.Error(t, err)

	cfg.Contest.Timezone = "Europe/Nowhere"
	loc, err := cfg.Location()
	assert.Error(t, err)
	assert.Nil(t, loc)

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CONTEST_TIMEZONE", "Europe/Nowhere")
	_, err = Load()
	assert.Error(t, err)
}
