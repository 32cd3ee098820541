package workers

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/platform/telegram"
)

type fakeDeactivator struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (f *fakeDeactivator) DeactivateByChatID(_ context.Context, chatID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.ids = append(f.ids, chatID)
	return 1, nil
}

func (f *fakeDeactivator) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.ids...)
}

func TestProcessBotRemoved(t *testing.T) {
	d := &fakeDeactivator{}
	w := NewRedisStreamWorker(nil, d)
	ctx := context.Background()

	require.NoError(t, w.processMessage(ctx, map[string]interface{}{"type": EventBotRemoved, "channel_id": "-100123"}))
	require.NoError(t, w.processMessage(ctx, map[string]interface{}{"type": EventBotRemoved, "channel_id": "oops"}))
	require.NoError(t, w.processMessage(ctx, map[string]interface{}{"type": "other"}))
	assert.Equal(t, []int64{-100123}, d.calls())

	d.err = errors.New("db down")
	assert.Error(t, w.processMessage(ctx, map[string]interface{}{"type": EventBotRemoved, "channel_id": "-100123"}))
}

func TestDirectEvents(t *testing.T) {
	d := &fakeDeactivator{}
	require.NoError(t, NewDirectEvents(d).BotRemoved(context.Background(), -1007))
	assert.Equal(t, []int64{-1007}, d.calls())
}

type fakeSource struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	offsets []int64
	cancel  context.CancelFunc
}

func (f *fakeSource) DeleteWebhook(context.Context) error { return nil }

func (f *fakeSource) GetUpdates(_ context.Context, offset int64, _ time.Duration) ([]telegram.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if len(f.batches) == 0 {
		f.cancel()
		return nil, context.Canceled
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestPollerAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeSource{
		batches: [][]telegram.Update{{{UpdateID: 10}, {UpdateID: 11}}, {{UpdateID: 12}}},
		cancel:  cancel,
	}

	var routed []int64
	p := NewPoller(src, func(_ context.Context, u telegram.Update) { routed = append(routed, u.UpdateID) }, time.Second)
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, []int64{10, 11, 12}, routed)
	assert.Equal(t, []int64{0, 12, 13}, src.offsets)
}

func TestStreamRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := go_redis.NewClient(&go_redis.Options{Addr: addr})
	defer rdb.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, rdb.Del(ctx, StreamKey).Err())

	d := &fakeDeactivator{}
	w := NewRedisStreamWorker(rdb, d)
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// группа создаётся с "$", поэтому публикуем после старта воркера
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, NewStreamPublisher(rdb).BotRemoved(ctx, -100555))

	assert.Eventually(t, func() bool { return len(d.calls()) == 1 }, 8*time.Second, 50*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, []int64{-100555}, d.calls())
}
