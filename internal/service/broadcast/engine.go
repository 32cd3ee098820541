// Package broadcast fans one composed message out to a recipient snapshot.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	domain "contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/messaging"
)

type Config struct {
	RatePerSecond int
	Workers       int
	SendTimeout   time.Duration
}

// Job is one broadcast run. Recipients is fixed when the job is built.
type Job struct {
	OperatorID int64
	Message    domain.Message
	Recipients []int64
}

// Result counts delivery outcomes. Sent + Failed always equals the number
// of recipients, including after cancellation.
type Result struct {
	Sent      int
	Failed    int
	Cancelled bool
}

// Engine delivers jobs through a paced worker pool.
type Engine struct {
	sender messaging.Sender
	logs   domain.Repository
	cfg    Config
	log    zerolog.Logger
}

func NewEngine(sender messaging.Sender, logs domain.Repository, cfg Config) *Engine {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 30
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Engine{
		sender: sender,
		logs:   logs,
		cfg:    cfg,
		log:    logger.Component("broadcast"),
	}
}

// Execute sends job.Message to every recipient and persists one summary
// log. Per-recipient failures are counted, never returned. The error is
// non-nil only when the summary could not be stored.
func (e *Engine) Execute(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	limiter := rate.NewLimiter(rate.Limit(e.cfg.RatePerSecond), e.cfg.RatePerSecond)
	queue := make(chan int64)

	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chatID := range queue {
				if err := e.deliver(ctx, chatID, job.Message); err != nil {
					failed.Add(1)
					e.log.Warn().Err(err).Int64("recipient_id", chatID).Msg("Broadcast delivery failed")
					continue
				}
				sent.Add(1)
			}
		}()
	}

	dispatched := 0
feed:
	for _, chatID := range job.Recipients {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case queue <- chatID:
			dispatched++
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	res := Result{
		Sent:      int(sent.Load()),
		Failed:    int(failed.Load()) + len(job.Recipients) - dispatched,
		Cancelled: dispatched < len(job.Recipients),
	}

	e.log.Info().
		Int64("operator_id", job.OperatorID).
		Int("recipients", len(job.Recipients)).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Bool("cancelled", res.Cancelled).
		Dur("took", time.Since(start)).
		Msg("Broadcast finished")

	if err := e.saveLog(context.WithoutCancel(ctx), job, res); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) deliver(ctx context.Context, chatID int64, msg domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
	defer cancel()
	return e.sender.Send(ctx, Outgoing(chatID, msg))
}

func (e *Engine) saveLog(ctx context.Context, job Job, res Result) error {
	content, err := json.Marshal(job.Message)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode broadcast content")
	}
	l := &domain.Log{
		OperatorID:  job.OperatorID,
		Kind:        job.Message.Kind,
		Content:     string(content),
		SentCount:   res.Sent,
		FailedCount: res.Failed,
	}
	if err := e.logs.Save(ctx, l); err != nil {
		e.log.Error().Err(err).Int64("operator_id", job.OperatorID).Msg("Failed to save broadcast log")
		return apperrors.NewDatabaseError("save broadcast log", err)
	}
	return nil
}

// Outgoing renders msg for one recipient, one URL button per row.
func Outgoing(chatID int64, msg domain.Message) messaging.Outgoing {
	out := messaging.Outgoing{
		ChatID:      chatID,
		Kind:        messaging.Kind(msg.Kind),
		Text:        msg.Text,
		MediaFileID: msg.MediaFileID,
	}
	if out.Kind == "" {
		out.Kind = messaging.KindText
	}
	for _, b := range msg.Buttons {
		out.Inline = append(out.Inline, []messaging.Button{messaging.URLButton(b.Text, b.URL)})
	}
	return out
}
