package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/messaging"
)

type recorded struct {
	method string
	params map[string]any
}

func newTestClient(t *testing.T, handler func(method string, params map[string]any) (int, string)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		params := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&params)
		calls = append(calls, recorded{method: method, params: params})

		status, body := handler(method, params)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient("TOKEN", time.Second, WithBaseURL(srv.URL)), &calls
}

func TestGetChatMember(t *testing.T) {
	client, calls := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"status":"member","user":{"id":42,"is_bot":false,"first_name":"Ann"}}}`
	})

	m, err := client.GetChatMember(context.Background(), "@news", 42)
	require.NoError(t, err)
	assert.Equal(t, "member", m.Status)
	assert.Equal(t, int64(42), m.User.ID)

	require.Len(t, *calls, 1)
	assert.Equal(t, "getChatMember", (*calls)[0].method)
	assert.Equal(t, "@news", (*calls)[0].params["chat_id"])
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`, ErrUserNotFound},
		{http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, ErrChatInaccessible},
		{http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`, ErrChatInaccessible},
		{http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`, ErrUnavailable},
		{http.StatusBadGateway, `<html>bad gateway</html>`, ErrUnavailable},
		{http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`, ErrBadRequest},
	}

	for _, tc := range cases {
		client, _ := newTestClient(t, func(string, map[string]any) (int, string) {
			return tc.status, tc.body
		})
		_, err := client.GetChatMember(context.Background(), "@news", 1)
		assert.ErrorIs(t, err, tc.want, tc.body)
	}
}

func TestRetryAfterIsExposed(t *testing.T) {
	client, _ := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`
	})

	_, err := client.SendMessage(context.Background(), 1, "hi", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7, apiErr.RetryAfter)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	client := NewClient("TOKEN", 200*time.Millisecond, WithBaseURL("http://127.0.0.1:1"))
	_, err := client.GetMe(context.Background())
	assert.True(t, IsUnavailable(err))
}

func TestSendBuildsMarkup(t *testing.T) {
	client, calls := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":1,"chat":{"id":5,"type":"private"},"date":0}}`
	})

	err := client.Send(context.Background(), messaging.Outgoing{
		ChatID:      5,
		Kind:        messaging.KindPhoto,
		Text:        "caption",
		MediaFileID: "file-1",
		Inline:      [][]messaging.Button{{messaging.URLButton("Open", "https://example.com")}},
	})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "sendPhoto", call.method)
	assert.Equal(t, "file-1", call.params["photo"])
	markup := call.params["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "https://example.com", button["url"])
}

func TestSendEditFallsBackToNewMessage(t *testing.T) {
	client, calls := newTestClient(t, func(method string, _ map[string]any) (int, string) {
		if method == "editMessageText" {
			return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`
		}
		return http.StatusOK, `{"ok":true,"result":{"message_id":2,"chat":{"id":5,"type":"private"},"date":0}}`
	})

	err := client.Send(context.Background(), messaging.Outgoing{ChatID: 5, Text: "menu", EditMessageID: 10})
	require.NoError(t, err)
	require.Len(t, *calls, 2)
	assert.Equal(t, "editMessageText", (*calls)[0].method)
	assert.Equal(t, "sendMessage", (*calls)[1].method)
}

func TestSendEditNotModified(t *testing.T) {
	client, calls := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`
	})

	err := client.Send(context.Background(), messaging.Outgoing{ChatID: 5, Text: "menu", EditMessageID: 10})
	require.NoError(t, err)
	assert.Len(t, *calls, 1)
}

func TestSendReplyKeyboardRemove(t *testing.T) {
	client, calls := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":2,"chat":{"id":5,"type":"private"},"date":0}}`
	})

	err := client.Send(context.Background(), messaging.Outgoing{
		ChatID: 5,
		Text:   "bye",
		Reply:  &messaging.ReplyKeyboard{Remove: true},
	})
	require.NoError(t, err)
	markup := (*calls)[0].params["reply_markup"].(map[string]any)
	assert.Equal(t, true, markup["remove_keyboard"])
}
