package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a minimal Bot API client. Every call is bounded by the client
// timeout in addition to the caller's context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	timeout    time.Duration
	log        zerolog.Logger
}

type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(token string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		// long polling needs more than the per-call timeout
		httpClient: &http.Client{Timeout: timeout + time.Minute},
		baseURL:    defaultBaseURL,
		token:      token,
		timeout:    timeout,
		log:        logger.Component("telegram"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tgResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Result      T      `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// call posts params as JSON to method and decodes the result into out.
func call[T any](ctx context.Context, c *Client, method string, params any, timeout time.Duration) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(params)
	if err != nil {
		return zero, fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &APIError{Method: method, Description: err.Error(), kind: ErrUnavailable}
	}
	defer resp.Body.Close()

	var result tgResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return zero, &APIError{Method: method, Code: resp.StatusCode, Description: resp.Status, kind: ErrUnavailable}
		}
		return zero, fmt.Errorf("telegram %s: decode: %w", method, err)
	}

	if !result.Ok {
		code := result.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		apiErr := &APIError{
			Method:      method,
			Code:        code,
			Description: result.Description,
			kind:        classify(code, result.Description),
		}
		if result.Parameters != nil {
			apiErr.RetryAfter = result.Parameters.RetryAfter
		}
		return zero, apiErr
	}
	return result.Result, nil
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	u, err := call[User](ctx, c, "getMe", struct{}{}, c.timeout)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetChat resolves a chat reference ("@username" or numeric id).
func (c *Client) GetChat(ctx context.Context, chatRef string) (*Chat, error) {
	chat, err := call[Chat](ctx, c, "getChat", map[string]any{"chat_id": chatRef}, c.timeout)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) GetChatMember(ctx context.Context, chatRef string, userID int64) (*ChatMember, error) {
	m, err := call[ChatMember](ctx, c, "getChatMember", map[string]any{
		"chat_id": chatRef,
		"user_id": userID,
	}, c.timeout)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateChatInviteLink(ctx context.Context, chatRef string) (string, error) {
	link, err := call[ChatInviteLink](ctx, c, "createChatInviteLink", map[string]any{"chat_id": chatRef}, c.timeout)
	if err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) (*Message, error) {
	params := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	m, err := call[Message](ctx, c, "sendMessage", params, c.timeout)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) sendMedia(ctx context.Context, method, field string, chatID int64, fileID, caption string, markup any) error {
	params := map[string]any{
		"chat_id":    chatID,
		field:        fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	_, err := call[Message](ctx, c, method, params, c.timeout)
	return err
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup any) error {
	return c.sendMedia(ctx, "sendPhoto", "photo", chatID, fileID, caption, markup)
}

func (c *Client) SendVideo(ctx context.Context, chatID int64, fileID, caption string, markup any) error {
	return c.sendMedia(ctx, "sendVideo", "video", chatID, fileID, caption, markup)
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	params := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	_, err := call[json.RawMessage](ctx, c, "editMessageText", params, c.timeout)
	return err
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	params := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		params["text"] = text
	}
	_, err := call[bool](ctx, c, "answerCallbackQuery", params, c.timeout)
	return err
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(pollTimeout.Seconds()),
		"allowed_updates": AllowedUpdates,
	}
	return call[[]Update](ctx, c, "getUpdates", params, pollTimeout+c.timeout)
}

// AllowedUpdates lists the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	params := map[string]any{
		"url":                  url,
		"allowed_updates":      AllowedUpdates,
		"drop_pending_updates": true,
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	_, err := call[bool](ctx, c, "setWebhook", params, c.timeout)
	return err
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := call[bool](ctx, c, "deleteWebhook", struct{}{}, c.timeout)
	return err
}

// ChatIDString formats a numeric chat id as a chat reference.
func ChatIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// IsNotModified reports whether an edit failed only because the content did
// not change.
func IsNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && bytes.Contains([]byte(apiErr.Description), []byte("message is not modified"))
}
