package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 3000
	MaxSettingLength     = 3500
	MaxButtonTextLength  = 64
	MaxBroadcastCaption  = 1024
	MaxBroadcastText     = 4096
)

var (
	// Telegram username: буквы, цифры, подчеркивания, 5-32 символа
	telegramUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{5,32}$`)
	numericChatIDRegex    = regexp.MustCompile(`^-\d{5,20}$`)
	channelLinkRegex      = regexp.MustCompile(`t\.me/([+\w]+)`)
)

var (
	ErrEmpty             = errors.New("value is empty")
	ErrInviteLink        = errors.New("invite links cannot be used as channel reference")
	ErrInvalidChannelRef = errors.New("invalid channel reference")
	ErrInvalidURL        = errors.New("invalid button url")
)

// ValidateText trims value and checks it is non-empty and within max runes.
func ValidateText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s: %w", field, ErrEmpty)
	}
	if utf8.RuneCountInString(value) > max {
		return "", fmt.Errorf("%s cannot exceed %d characters", field, max)
	}
	return value, nil
}

// NormalizeChannelRef turns admin input into a chat reference accepted by
// the Bot API: "@username" or a numeric "-100..." id. Accepts bare
// usernames and t.me links; private invite links are rejected since the
// bot cannot resolve them.
func NormalizeChannelRef(input string) (string, error) {
	ref := strings.TrimSpace(input)
	if ref == "" {
		return "", ErrEmpty
	}

	if strings.Contains(ref, "t.me/") {
		m := channelLinkRegex.FindStringSubmatch(ref)
		if m == nil {
			return "", ErrInvalidChannelRef
		}
		if strings.HasPrefix(m[1], "+") || strings.EqualFold(m[1], "joinchat") {
			return "", ErrInviteLink
		}
		ref = "@" + m[1]
	}

	if numericChatIDRegex.MatchString(ref) {
		return ref, nil
	}

	username := strings.TrimPrefix(ref, "@")
	if !telegramUsernameRegex.MatchString(username) {
		return "", ErrInvalidChannelRef
	}
	return "@" + username, nil
}

// IsNumericChatID reports whether ref is a numeric chat id rather than a
// public username.
func IsNumericChatID(ref string) bool {
	return numericChatIDRegex.MatchString(ref)
}

// ValidateButtonURL accepts absolute http(s) and tg:// links.
func ValidateButtonURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return "", ErrInvalidURL
		}
	case "tg":
	default:
		return "", ErrInvalidURL
	}
	return raw, nil
}
