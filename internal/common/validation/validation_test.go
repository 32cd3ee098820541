package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChannelRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{in: "@my_channel", want: "@my_channel"},
		{in: "my_channel", want: "@my_channel"},
		{in: "https://t.me/my_channel", want: "@my_channel"},
		{in: "  t.me/my_channel  ", want: "@my_channel"},
		{in: "-1001234567890", want: "-1001234567890"},
		{in: "https://t.me/+AbCdEf123", err: ErrInviteLink},
		{in: "https://t.me/joinchat/AbCdEf", err: ErrInviteLink},
		{in: "", err: ErrEmpty},
		{in: "@ab", err: ErrInvalidChannelRef},
	}

	for _, tc := range cases {
		got, err := NormalizeChannelRef(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestValidateButtonURL(t *testing.T) {
	_, err := ValidateButtonURL("https://example.com/promo")
	assert.NoError(t, err)
	_, err = ValidateButtonURL("tg://user?id=1")
	assert.NoError(t, err)

	_, err = ValidateButtonURL("example.com")
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = ValidateButtonURL("javascript:alert(1)")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestValidateText(t *testing.T) {
	v, err := ValidateText("title", "  Spring contest ", MaxTitleLength)
	require.NoError(t, err)
	assert.Equal(t, "Spring contest", v)

	_, err = ValidateText("title", "   ", MaxTitleLength)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ValidateText("title", strings.Repeat("x", MaxTitleLength+1), MaxTitleLength)
	assert.Error(t, err)
}
