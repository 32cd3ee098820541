// Package gate decides whether a user satisfies the channel membership
// requirement.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/platform/telegram"
)

// Outcome is the classification of one membership query.
type Outcome int

const (
	Member Outcome = iota
	NotMember
	// UserAbsent: the chat has never seen the user. Counts as NotMember.
	UserAbsent
	// SystemError: the chat is inaccessible to the bot. Not the user's fault.
	SystemError
	// Unavailable: timeout, rate limit or server error.
	Unavailable
)

func (o Outcome) String() string {
	switch o {
	case Member:
		return "member"
	case NotMember:
		return "not_member"
	case UserAbsent:
		return "user_absent"
	case SystemError:
		return "system_error"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// MembershipQuery looks up a user's status in a chat.
type MembershipQuery interface {
	GetChatMember(ctx context.Context, chatRef string, userID int64) (*telegram.ChatMember, error)
}

// ChannelSource lists the channels currently required for gating.
type ChannelSource interface {
	ListActive(ctx context.Context) ([]channel.Channel, error)
}

// Issue is a channel excluded from the verdict.
type Issue struct {
	Channel channel.Channel
	Outcome Outcome
	Err     error
}

// Result is a gating verdict. Unsatisfied and Skipped keep channel order.
// Inconclusive is set when some channel could not be checked right now;
// such a verdict never passes, and the caller should ask to retry.
type Result struct {
	AllSatisfied bool
	Inconclusive bool
	Unsatisfied  []channel.Channel
	Skipped      []Issue
}

type Config struct {
	Timeout     time.Duration
	Concurrency int
}

// Gate checks channel membership. Checks have no side effects.
type Gate struct {
	members  MembershipQuery
	channels ChannelSource
	cfg      Config
	log      zerolog.Logger
}

func New(members MembershipQuery, channels ChannelSource, cfg Config) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Gate{
		members:  members,
		channels: channels,
		cfg:      cfg,
		log:      logger.Component("gate"),
	}
}

// Check runs the gate against the current active channel set.
func (g *Gate) Check(ctx context.Context, userID int64) (*Result, error) {
	chs, err := g.channels.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return g.CheckChannels(ctx, userID, chs), nil
}

// CheckChannels queries every channel concurrently. A channel that fails is
// classified on its own and never stops the others. A SystemError channel is
// left out of the verdict; an Unavailable one makes it Inconclusive.
func (g *Gate) CheckChannels(ctx context.Context, userID int64, chs []channel.Channel) *Result {
	outcomes := make([]Outcome, len(chs))
	errs := make([]error, len(chs))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Concurrency)
	for i := range chs {
		eg.Go(func() error {
			outcomes[i], errs[i] = g.query(ctx, chs[i], userID)
			return nil
		})
	}
	_ = eg.Wait()

	res := &Result{}
	for i, ch := range chs {
		switch outcomes[i] {
		case Member:
		case NotMember, UserAbsent:
			res.Unsatisfied = append(res.Unsatisfied, ch)
		case SystemError:
			g.log.Warn().Err(errs[i]).Str("channel", ch.Ref).Int64("user_id", userID).
				Msg("Channel is not checkable, bot needs admin rights there")
			res.Skipped = append(res.Skipped, Issue{Channel: ch, Outcome: SystemError, Err: errs[i]})
		case Unavailable:
			g.log.Warn().Err(errs[i]).Str("channel", ch.Ref).Int64("user_id", userID).
				Msg("Membership check unavailable")
			res.Skipped = append(res.Skipped, Issue{Channel: ch, Outcome: Unavailable, Err: errs[i]})
			res.Inconclusive = true
		}
	}
	res.AllSatisfied = len(res.Unsatisfied) == 0 && !res.Inconclusive
	return res
}

func (g *Gate) query(ctx context.Context, ch channel.Channel, userID int64) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	m, err := g.members.GetChatMember(ctx, ch.Ref, userID)
	if err != nil {
		return Classify(err), err
	}
	return StatusOutcome(m), nil
}

// StatusOutcome maps a chat member record to Member or NotMember.
func StatusOutcome(m *telegram.ChatMember) Outcome {
	switch m.Status {
	case "creator", "administrator", "member":
		return Member
	case "restricted":
		if m.IsMember {
			return Member
		}
	}
	return NotMember
}

// Classify maps a failed membership query to an outcome.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, telegram.ErrUserNotFound):
		return UserAbsent
	case errors.Is(err, telegram.ErrChatInaccessible):
		return SystemError
	case errors.Is(err, telegram.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Unavailable
	default:
		// непонятный ответ API: считаем проблемой конфигурации канала
		return SystemError
	}
}
