package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/platform/telegram"
	"contest-bot/internal/repository/memory"
)

type fakeChats struct {
	chats   map[string]telegram.Chat
	created int
}

func (f *fakeChats) GetChat(_ context.Context, ref string) (*telegram.Chat, error) {
	c, ok := f.chats[ref]
	if !ok {
		return nil, errors.Join(errors.New("Bad Request: chat not found"), telegram.ErrChatInaccessible)
	}
	return &c, nil
}

func (f *fakeChats) CreateChatInviteLink(context.Context, string) (string, error) {
	f.created++
	return "https://t.me/+generated", nil
}

func newService() (*Service, *fakeChats) {
	chats := &fakeChats{chats: map[string]telegram.Chat{
		"@news":          {ID: -1001, Type: "channel", Title: "News", Username: "news"},
		"-1009876543210": {ID: -1009876543210, Type: "channel", Title: "Private"},
	}}
	return NewService(memory.NewChannelRepository(), chats, nil), chats
}

func TestAddPublicChannelFromLink(t *testing.T) {
	svc, chats := newService()

	ch, err := svc.Add(context.Background(), "https://t.me/news")
	require.NoError(t, err)
	assert.Equal(t, "@news", ch.Ref)
	assert.Equal(t, "News", ch.Title)
	assert.False(t, ch.IsPrivate)
	assert.True(t, ch.IsActive)
	assert.Empty(t, ch.InviteLink)
	assert.Zero(t, chats.created)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestAddPrivateChannelCreatesInviteLink(t *testing.T) {
	svc, chats := newService()

	ch, err := svc.Add(context.Background(), "-1009876543210")
	require.NoError(t, err)
	assert.True(t, ch.IsPrivate)
	assert.Equal(t, "https://t.me/+generated", ch.InviteLink)
	assert.Equal(t, 1, chats.created)
}

func TestAddRejections(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "https://t.me/+secret")
	assert.ErrorIs(t, err, validation.ErrInviteLink)

	_, err = svc.Add(ctx, "@unknown_chan")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = svc.Add(ctx, "@news")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "news")
	assert.ErrorIs(t, err, channel.ErrAlreadyExists)
}

func TestToggleAndDeactivate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	ch, err := svc.Add(ctx, "@news")
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.Toggle(ctx, ch.ID)
	require.NoError(t, err)

	n, err := svc.DeactivateByChatID(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
