package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/user"
	"contest-bot/internal/platform/telegram"
	"contest-bot/internal/service/stats"
)

const (
	botToken = "123456:test-token"
	adminID  = int64(42)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingRouter struct {
	mu      sync.Mutex
	updates []telegram.Update
}

func (r *recordingRouter) Route(_ context.Context, u telegram.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

type fakeStats struct{}

func (fakeStats) Get(context.Context) (*stats.Stats, error) {
	return &stats.Stats{Participants: 3, TotalPoints: 25, Channels: 2, ActiveContest: true}, nil
}

type fakeRating struct{ gotLimit int }

func (f *fakeRating) Top(_ context.Context, limit int) ([]user.User, error) {
	f.gotLimit = limit
	return []user.User{
		{ID: 10, Username: "alice", Points: 15},
		{ID: 11, FirstName: "Bob", Points: 10},
	}, nil
}

type fakeLogs struct{}

func (fakeLogs) List(context.Context, int) ([]broadcast.Log, error) {
	return []broadcast.Log{{ID: 1, OperatorID: adminID, Kind: broadcast.KindText, Content: "hi", SentCount: 2, FailedCount: 1}}, nil
}

func newTestRouter(t *testing.T, checks ...Check) (*gin.Engine, *recordingRouter, *fakeRating) {
	t.Helper()
	updates := &recordingRouter{}
	rating := &fakeRating{}
	r := NewRouter(Deps{
		Updates:    updates,
		Stats:      fakeStats{},
		Rating:     rating,
		Broadcasts: fakeLogs{},
		Checks:     checks,
	}, Options{
		Debug:         true,
		BotToken:      botToken,
		WebhookSecret: "hook-secret",
		AdminIDs:      []int64{adminID},
	})
	return r, updates, rating
}

// signInitData builds Mini App init data the way Telegram signs it.
func signInitData(t *testing.T, userID int64) string {
	t.Helper()
	u, err := json.Marshal(map[string]any{"id": userID, "first_name": "Op"})
	require.NoError(t, err)

	vals := map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"query_id":  "AAH",
		"user":      string(u),
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+vals[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	q := url.Values{}
	for k, v := range vals {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRoutesUpdate(t *testing.T) {
	r, updates, _ := newTestRouter(t)

	body := `{"update_id":7,"message":{"message_id":1,"from":{"id":5,"is_bot":false,"first_name":"A"},"chat":{"id":5,"type":"private"},"date":1,"text":"/start"}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook-secret")

	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, updates.updates, 1)
	assert.Equal(t, int64(7), updates.updates[0].UpdateID)
	assert.Equal(t, "/start", updates.updates[0].Message.Text)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	r, updates, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":1}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "nope")

	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
	assert.Empty(t, updates.updates)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	r, updates, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook-secret")

	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)
	assert.Empty(t, updates.updates)
}

func TestAdminStats(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Telegram-Init-Data", signInitData(t, adminID))
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got stats.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Participants)
	assert.Equal(t, int64(25), got.TotalPoints)
	assert.True(t, got.ActiveContest)
}

func TestAdminRequiresOperator(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Telegram-Init-Data", signInitData(t, 999))
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)
}

func TestAdminRating(t *testing.T) {
	r, _, rating := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rating?limit=5", nil)
	req.Header.Set("X-Telegram-Init-Data", signInitData(t, adminID))
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, rating.gotLimit)

	var got RatingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 2)
	assert.Equal(t, RatingEntry{Rank: 1, UserID: 10, Name: "@alice", Points: 15}, got.Items[0])
	assert.Equal(t, "Bob", got.Items[1].Name)
}

func TestAdminRatingRejectsBadLimit(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, limit := range []string{"0", "101", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rating?limit="+limit, nil)
		req.Header.Set("X-Telegram-Init-Data", signInitData(t, adminID))
		assert.Equal(t, http.StatusBadRequest, do(r, req).Code, limit)
	}
}

func TestAdminBroadcasts(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/broadcasts", nil)
	req.Header.Set("X-Telegram-Init-Data", signInitData(t, adminID))
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got BroadcastsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].SentCount)
	assert.Equal(t, 1, got.Items[0].FailedCount)
}

func TestReadyReportsFailingCheck(t *testing.T) {
	ok := Check{Name: "postgres", Fn: func(context.Context) error { return nil }}
	r, _, _ := newTestRouter(t, ok)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)

	bad := Check{Name: "redis", Fn: func(context.Context) error { return assert.AnError }}
	r, _, _ = newTestRouter(t, ok, bad)
	w := do(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/live", nil)).Code)
}
