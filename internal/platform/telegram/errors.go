package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUserNotFound means the chat does not know the user at all.
	ErrUserNotFound = errors.New("telegram: user not found")
	// ErrChatInaccessible means the chat is gone or the bot lacks rights.
	ErrChatInaccessible = errors.New("telegram: chat inaccessible")
	// ErrUnavailable covers rate limiting, server errors, timeouts and
	// network failures. Retrying later may succeed.
	ErrUnavailable = errors.New("telegram: temporarily unavailable")
	// ErrBadRequest is any other rejected request.
	ErrBadRequest = errors.New("telegram: bad request")
)

// APIError is a failed Bot API call. It unwraps to one of the sentinel
// errors above.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
	kind        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

var (
	userAbsentMarkers = []string{
		"user not found",
		"participant_id_invalid",
		"user_id_invalid",
	}
	chatInaccessibleMarkers = []string{
		"chat not found",
		"bot is not a member",
		"bot was kicked",
		"not enough rights",
		"member list is inaccessible",
		"chat_admin_required",
		"need administrator rights",
		"channel_private",
	}
)

func classify(code int, description string) error {
	desc := strings.ToLower(description)
	switch {
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return ErrUnavailable
	case containsAny(desc, userAbsentMarkers):
		return ErrUserNotFound
	case code == http.StatusForbidden || containsAny(desc, chatInaccessibleMarkers):
		return ErrChatInaccessible
	default:
		return ErrBadRequest
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsUnavailable reports whether err is a transient Bot API failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
