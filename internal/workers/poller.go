package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/telegram"
)

// UpdateSource is the long polling side of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]telegram.Update, error)
	DeleteWebhook(ctx context.Context) error
}

// Poller pulls updates with getUpdates and hands them to route. It is used
// when no webhook URL is configured.
type Poller struct {
	src     UpdateSource
	route   func(ctx context.Context, u telegram.Update)
	timeout time.Duration
	log     zerolog.Logger
}

func NewPoller(src UpdateSource, route func(ctx context.Context, u telegram.Update), pollTimeout time.Duration) *Poller {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Poller{src: src, route: route, timeout: pollTimeout, log: logger.Component("poller")}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.src.DeleteWebhook(ctx); err != nil {
		return err
	}
	p.log.Info().Dur("timeout", p.timeout).Msg("Long polling started")

	var offset int64
	backoff := time.Second
	for ctx.Err() == nil {
		updates, err := p.src.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.log.Warn().Err(err).Dur("backoff", backoff).Msg("getUpdates failed")
			sleep(ctx, backoff)
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.route(ctx, u)
		}
	}
	p.log.Info().Msg("Long polling stopped")
	return nil
}
