package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/messaging"
	"contest-bot/internal/repository/memory"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []messaging.Outgoing
	failOn map[int64]bool
	onSend func()
}

func (f *fakeSender) Send(_ context.Context, msg messaging.Outgoing) error {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[msg.ChatID] {
		return errors.New("bot was blocked by the user")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) AnswerCallback(context.Context, string, string) error { return nil }

func TestExecuteCountsFailures(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{failOn: map[int64]bool{2: true}}
	logs := memory.NewBroadcastRepository()
	engine := NewEngine(sender, logs, Config{RatePerSecond: 100, Workers: 2, SendTimeout: time.Second})

	job := Job{
		OperatorID: 77,
		Message: domain.Message{
			Kind:    domain.KindText,
			Text:    "<b>Hello</b>",
			Buttons: []domain.Button{{Text: "Site", URL: "https://example.com"}},
		},
		Recipients: []int64{1, 2, 3},
	}
	res, err := engine.Execute(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Cancelled)

	stored, err := logs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(77), stored[0].OperatorID)
	assert.Equal(t, 2, stored[0].SentCount)
	assert.Equal(t, 1, stored[0].FailedCount)
	assert.Equal(t, domain.KindText, stored[0].Kind)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "https://example.com", sender.sent[0].Inline[0][0].URL)
}

func TestExecuteCancelledCountsRemainderAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	sender := &fakeSender{onSend: func() { once.Do(cancel) }}
	logs := memory.NewBroadcastRepository()
	engine := NewEngine(sender, logs, Config{RatePerSecond: 1, Workers: 1, SendTimeout: time.Second})

	recipients := make([]int64, 50)
	for i := range recipients {
		recipients[i] = int64(i + 1)
	}
	res, err := engine.Execute(ctx, Job{OperatorID: 1, Message: domain.Message{Kind: domain.KindText, Text: "x"}, Recipients: recipients})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, len(recipients), res.Sent+res.Failed)
	assert.Less(t, res.Sent, len(recipients))

	stored, err := logs.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestExecuteRespectsRate(t *testing.T) {
	sender := &fakeSender{}
	engine := NewEngine(sender, memory.NewBroadcastRepository(), Config{RatePerSecond: 10, Workers: 4, SendTimeout: time.Second})

	recipients := make([]int64, 15)
	for i := range recipients {
		recipients[i] = int64(i + 1)
	}
	start := time.Now()
	res, err := engine.Execute(context.Background(), Job{Message: domain.Message{Text: "x"}, Recipients: recipients})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Sent)
	// burst of 10, the remaining 5 need at least ~0.4s at 10/s
	assert.GreaterOrEqual(t, time.Since(start), 350*time.Millisecond)
}

func TestOutgoingMedia(t *testing.T) {
	out := Outgoing(5, domain.Message{Kind: domain.KindVideo, Text: "cap", MediaFileID: "vid"})
	assert.Equal(t, messaging.KindVideo, out.Kind)
	assert.Equal(t, "vid", out.MediaFileID)
	assert.Equal(t, "cap", out.Text)
	assert.Empty(t, out.Inline)
}

func TestRunnerOnePerOperator(t *testing.T) {
	release := make(chan struct{})
	sender := &fakeSender{onSend: func() { <-release }}
	engine := NewEngine(sender, memory.NewBroadcastRepository(), Config{RatePerSecond: 100, Workers: 1})

	reports := make(chan Result, 2)
	runner := NewRunner(context.Background(), engine, func(_ context.Context, _ Job, res Result, _ error) {
		reports <- res
	})

	job := Job{OperatorID: 1, Message: domain.Message{Text: "x"}, Recipients: []int64{10}}
	require.NoError(t, runner.Start(job))
	assert.ErrorIs(t, runner.Start(job), ErrAlreadyRunning)
	assert.True(t, runner.Running(1))

	// другой оператор запускается независимо
	require.NoError(t, runner.Start(Job{OperatorID: 2, Message: domain.Message{Text: "y"}, Recipients: []int64{11}}))

	close(release)
	runner.Wait()
	assert.False(t, runner.Running(1))
	assert.Len(t, reports, 2)
}
