package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/domain/messaging"
	"contest-bot/internal/service/broadcast"
)

// Handler turns one event into the messages to deliver.
type Handler interface {
	Handle(ctx context.Context, ev Event) []messaging.Outgoing
}

// Dispatcher runs each user's events in arrival order on a goroutine of
// its own; different users are handled in parallel. The goroutine exits
// once the user's queue is drained.
type Dispatcher struct {
	handler Handler
	sender  messaging.Sender
	base    context.Context
	timeout time.Duration

	mu     sync.Mutex
	queues map[int64][]Event
	wg     sync.WaitGroup
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher. Events in flight survive the
// cancellation of ctx; each is bounded by timeout instead.
func NewDispatcher(ctx context.Context, h Handler, sender messaging.Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		handler: h,
		sender:  sender,
		base:    context.WithoutCancel(ctx),
		timeout: timeout,
		queues:  map[int64][]Event{},
		log:     logger.Component("dispatcher"),
	}
}

// Dispatch queues ev behind the user's pending events. It never blocks on
// handling.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, busy := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(q, ev)
	if !busy {
		d.wg.Add(1)
		go d.drain(ev.UserID)
	}
}

func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[userID] = q[1:]
		d.mu.Unlock()

		d.process(ev)
	}
}

func (d *Dispatcher) process(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int64("user_id", ev.UserID).Int64("update_id", ev.UpdateID).Msg("Event handler panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(d.base, d.timeout)
	defer cancel()

	for _, msg := range d.handler.Handle(ctx, ev) {
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Warn().Err(err).
				Int64("user_id", ev.UserID).
				Int64("chat_id", msg.ChatID).
				Str("kind", string(msg.Kind)).
				Msg("Failed to deliver reply")
		}
	}
}

// Wait blocks until every queued event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// BroadcastReport tells the operator how a broadcast went.
func BroadcastReport(sender messaging.Sender, timeout time.Duration) broadcast.ReportFunc {
	log := logger.Component("broadcast")
	return func(ctx context.Context, job broadcast.Job, res broadcast.Result, err error) {
		if err != nil {
			log.Error().Err(err).Int64("operator_id", job.OperatorID).Msg("Broadcast summary was not stored")
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		msg := messaging.Outgoing{ChatID: job.OperatorID, Kind: messaging.KindText, Text: textBroadcastDone(res.Sent, res.Failed)}
		if err := sender.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Int64("operator_id", job.OperatorID).Msg("Failed to report broadcast result")
		}
	}
}
