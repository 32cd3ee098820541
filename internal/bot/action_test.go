package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		data string
		want Action
		ok   bool
	}{
		{data: "check_subscription", want: Action{Name: ActCheckSubscription}, ok: true},
		{data: "broadcast_remove_buttons", want: Action{Name: ActBroadcastRmButtons}, ok: true},
		{data: "users_page_2", want: Action{Name: ActUsersPage, ID: 2}, ok: true},
		{data: "view_user_123456789", want: Action{Name: ActViewUser, ID: 123456789}, ok: true},
		{data: "unban_user_3", want: Action{Name: ActUnbanUser, ID: 3}, ok: true},
		{data: "ban_user_3", want: Action{Name: ActBanUser, ID: 3}, ok: true},
		{data: "toggle_channel_x", ok: false},
		{data: "users_page_-1", ok: false},
		{data: "something_else", ok: false},
		{data: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := ParseAction(tc.data)
		assert.Equal(t, tc.ok, ok, tc.data)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.data)
			assert.Equal(t, tc.data, got.Data())
		}
	}
}
