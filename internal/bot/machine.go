package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/domain/messaging"
	"contest-bot/internal/domain/user"
	"contest-bot/internal/service/broadcast"
	"contest-bot/internal/service/channels"
	"contest-bot/internal/service/contest"
	"contest-bot/internal/service/gate"
	"contest-bot/internal/service/ledger"
	"contest-bot/internal/service/settings"
	"contest-bot/internal/service/stats"
	usersvc "contest-bot/internal/service/user"
	"contest-bot/internal/session"
)

// Deps are the services the conversation drives.
type Deps struct {
	Sessions session.Store
	Users    *usersvc.Service
	Ledger   *ledger.Ledger
	Gate     *gate.Gate
	Channels *channels.Service
	Contests *contest.Service
	Settings *settings.Service
	Stats    *stats.Service
	Runner   *broadcast.Runner
}

type Config struct {
	AdminIDs          []int64
	BotUsername       string
	PerReferral       int64
	SubscriptionBonus int64
}

type (
	stepHandler   func(ctx context.Context, t *turn) error
	actionHandler func(ctx context.Context, t *turn, a Action) error
	screenHandler func(ctx context.Context, t *turn, u *user.User) error
)

// Machine is the conversation state machine. Handle is safe for concurrent
// use; events of one user are serialised by the session lock.
type Machine struct {
	Deps
	cfg     Config
	admins  map[int64]struct{}
	steps   map[session.Step]stepHandler
	actions map[string]actionHandler
	screens map[string]screenHandler
	now     func() time.Time
	log     zerolog.Logger
}

func NewMachine(deps Deps, cfg Config) *Machine {
	m := &Machine{
		Deps:   deps,
		cfg:    cfg,
		admins: make(map[int64]struct{}, len(cfg.AdminIDs)),
		now:    time.Now,
		log:    logger.Component("bot"),
	}
	for _, id := range cfg.AdminIDs {
		m.admins[id] = struct{}{}
	}
	m.steps = m.stepTable()
	m.actions = m.actionTable()
	m.screens = m.screenTable()
	return m
}

func (m *Machine) IsAdmin(userID int64) bool {
	_, ok := m.admins[userID]
	return ok
}

// turn collects the effects of handling one event.
type turn struct {
	ev    Event
	state session.State
	out   []messaging.Outgoing
	toast string
}

func (t *turn) send(msg messaging.Outgoing) {
	if msg.ChatID == 0 {
		msg.ChatID = t.ev.ChatID
	}
	if msg.Kind == "" {
		msg.Kind = messaging.KindText
	}
	t.out = append(t.out, msg)
}

func (t *turn) reply(text string, inline [][]messaging.Button) {
	t.send(messaging.Outgoing{Text: text, Inline: inline})
}

func (t *turn) replyKeyboard(text string, kb *messaging.ReplyKeyboard) {
	t.send(messaging.Outgoing{Text: text, Reply: kb})
}

// edit replaces the message the pressed button belongs to; for other
// events it sends a new message.
func (t *turn) edit(text string, inline [][]messaging.Button) {
	msg := messaging.Outgoing{Text: text, Inline: inline}
	if t.ev.Kind == EventButton {
		msg.EditMessageID = t.ev.MessageID
	}
	t.send(msg)
}

// Handle runs one event through the conversation and returns the messages
// to deliver, in order. On infrastructure failures the session is left as
// it was and the user gets a generic retry reply.
func (m *Machine) Handle(ctx context.Context, ev Event) []messaging.Outgoing {
	log := m.log.With().Int64("user_id", ev.UserID).Str("event", string(ev.Kind)).Logger()

	unlock, err := m.Sessions.Lock(ctx, ev.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to lock session")
		return m.failure(ev)
	}
	defer unlock()

	sess, err := m.Sessions.Get(ctx, ev.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session")
		return m.failure(ev)
	}

	t := &turn{ev: ev, state: sess.State}
	if err := m.dispatch(ctx, t); err != nil {
		log.Error().Err(err).Str("state", string(sess.State.Kind())).Msg("Event handling failed")
		return m.failure(ev)
	}

	if err := m.persist(ctx, sess, t.state); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
		return m.failure(ev)
	}
	if sess.State.Kind() != t.state.Kind() || sess.State.AdminStep() != t.state.AdminStep() {
		log.Debug().
			Str("from", string(sess.State.Kind())).
			Str("to", string(t.state.Kind())).
			Str("step", string(t.state.AdminStep())).
			Msg("Session transition")
	}

	if ev.Kind == EventButton {
		return append([]messaging.Outgoing{messaging.CallbackAnswer(ev.CallbackID, t.toast)}, t.out...)
	}
	return t.out
}

func (m *Machine) persist(ctx context.Context, prev *session.Session, next session.State) error {
	if next.Kind() == session.KindIdle {
		if prev.State.Kind() == session.KindIdle {
			return nil
		}
		return m.Sessions.Reset(ctx, prev.UserID)
	}
	return m.Sessions.Save(ctx, &session.Session{UserID: prev.UserID, State: next, UpdatedAt: m.now()})
}

func (m *Machine) failure(ev Event) []messaging.Outgoing {
	var out []messaging.Outgoing
	if ev.Kind == EventButton {
		out = append(out, messaging.CallbackAnswer(ev.CallbackID, ""))
	}
	return append(out, messaging.Outgoing{ChatID: ev.ChatID, Kind: messaging.KindText, Text: msgError})
}

func (m *Machine) dispatch(ctx context.Context, t *turn) error {
	switch t.ev.Kind {
	case EventButton:
		return m.onButton(ctx, t)
	case EventContact:
		return m.onContact(ctx, t)
	case EventCommand:
		switch t.ev.Command {
		case "start":
			return m.onStart(ctx, t)
		case "admin":
			return m.onAdmin(ctx, t)
		case "cancel":
			return m.onCancel(ctx, t)
		case "skip":
			return m.onStep(ctx, t)
		}
	case EventText:
		if m.IsAdmin(t.ev.UserID) && session.IsAdminFlow(t.state) {
			return m.onStep(ctx, t)
		}
		if reg, ok := t.state.(session.Registering); ok && reg.Stage == session.AwaitingPhone {
			t.replyKeyboard(msgSendPhone, phoneKeyboard())
			return nil
		}
		if screen, ok := m.screens[t.ev.Text]; ok {
			return m.gated(ctx, t, screen)
		}
	case EventMedia:
		if m.IsAdmin(t.ev.UserID) && session.IsAdminFlow(t.state) {
			return m.onStep(ctx, t)
		}
	}
	m.log.Debug().Int64("user_id", t.ev.UserID).Str("event", string(t.ev.Kind)).Msg("Event ignored")
	return nil
}

// onStep dispatches admin input on the current admin step.
func (m *Machine) onStep(ctx context.Context, t *turn) error {
	h, ok := m.steps[t.state.AdminStep()]
	if !ok {
		m.log.Debug().Int64("user_id", t.ev.UserID).Str("step", string(t.state.AdminStep())).Msg("No handler for step")
		return nil
	}
	return h(ctx, t)
}

func (m *Machine) onButton(ctx context.Context, t *turn) error {
	a, ok := ParseAction(t.ev.Data)
	if !ok {
		m.log.Debug().Int64("user_id", t.ev.UserID).Str("data", t.ev.Data).Msg("Unknown callback data")
		return nil
	}
	switch a.Name {
	case ActCheckSubscription:
		return m.onCheckSubscription(ctx, t)
	case ActBackToMenu:
		t.replyKeyboard(msgWelcomeBack, mainMenuKeyboard())
		return nil
	}

	if !m.IsAdmin(t.ev.UserID) {
		t.toast = msgNotAdmin
		return nil
	}
	h, ok := m.actions[a.Name]
	if !ok {
		return nil
	}
	return h(ctx, t, a)
}

func (m *Machine) onCancel(_ context.Context, t *turn) error {
	if !session.IsAdminFlow(t.state) {
		t.reply(msgCancelled, nil)
		return nil
	}
	t.state = session.Idle{}
	t.reply(msgCancelled, nil)
	t.reply(msgAdminWelcome, adminMenuKeyboard())
	return nil
}
