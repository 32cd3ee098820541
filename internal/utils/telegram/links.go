package telegram

import (
	"fmt"
	"net/url"
	"strings"
)

// fallbackChannelURL is used for private channels whose invite link could
// not be resolved; a bare "https://t.me/" would open telegram.org instead.
const fallbackChannelURL = "https://t.me/telegram"

// ChannelURL returns the link shown on a subscribe button: the stored invite
// link when present, the public t.me link for @username refs.
func ChannelURL(ref, inviteLink string) string {
	if inviteLink != "" {
		return inviteLink
	}
	if strings.HasPrefix(ref, "@") {
		return "https://t.me/" + strings.TrimPrefix(ref, "@")
	}
	return fallbackChannelURL
}

// ReferralLink is the deep link that starts the bot with a referral payload.
func ReferralLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}

// ShareURL wraps link into a t.me share dialog with a prefilled text.
func ShareURL(link, text string) string {
	return fmt.Sprintf("https://t.me/share/url?url=%s&text=%s", url.QueryEscape(link), url.QueryEscape(text))
}

// UserProfileURL opens a user's profile by numeric id.
func UserProfileURL(id int64) string {
	return fmt.Sprintf("tg://user?id=%d", id)
}
