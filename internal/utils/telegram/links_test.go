package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelURL(t *testing.T) {
	assert.Equal(t, "https://t.me/+invite", ChannelURL("-1001", "https://t.me/+invite"))
	assert.Equal(t, "https://t.me/news", ChannelURL("@news", ""))
	assert.Equal(t, fallbackChannelURL, ChannelURL("-1001", ""))
}

func TestReferralLink(t *testing.T) {
	assert.Equal(t, "https://t.me/contest_bot?start=ABCD1234", ReferralLink("contest_bot", "ABCD1234"))
	assert.Equal(t, "tg://user?id=42", UserProfileURL(42))
}
