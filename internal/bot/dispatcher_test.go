package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/domain/messaging"
)

type echoHandler struct {
	mu      sync.Mutex
	active  map[int64]bool
	overlap bool
}

func (h *echoHandler) Handle(_ context.Context, ev Event) []messaging.Outgoing {
	h.mu.Lock()
	if h.active[ev.UserID] {
		h.overlap = true
	}
	h.active[ev.UserID] = true
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.active[ev.UserID] = false
	h.mu.Unlock()
	return []messaging.Outgoing{{ChatID: ev.UserID, Kind: messaging.KindText, Text: ev.Text}}
}

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	h := &echoHandler{active: map[int64]bool{}}
	sender := &recordingSender{}
	d := NewDispatcher(context.Background(), h, sender, time.Second)

	for i := 0; i < 20; i++ {
		for _, uid := range []int64{1, 2, 3} {
			d.Dispatch(Event{UserID: uid, Kind: EventText, Text: fmt.Sprint(i)})
		}
	}
	d.Wait()

	assert.False(t, h.overlap, "events of one user never run concurrently")
	for _, uid := range []int64{1, 2, 3} {
		got := sender.to(uid)
		require.Len(t, got, 20)
		for i, m := range got {
			assert.Equal(t, fmt.Sprint(i), m.Text)
		}
	}
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, Event) []messaging.Outgoing { panic("boom") }

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := NewDispatcher(context.Background(), panicHandler{}, &recordingSender{}, time.Second)
	d.Dispatch(Event{UserID: 1})
	d.Dispatch(Event{UserID: 1})
	d.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.queues)
}
