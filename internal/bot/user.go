package bot

import (
	"context"
	"errors"

	"contest-bot/internal/domain/messaging"
	"contest-bot/internal/domain/setting"
	"contest-bot/internal/domain/user"
	usersvc "contest-bot/internal/service/user"
	"contest-bot/internal/session"
	tglinks "contest-bot/internal/utils/telegram"
)

const bonusNote = "Subscription bonus"

func (m *Machine) onStart(ctx context.Context, t *turn) error {
	u, err := m.Users.GetByID(ctx, t.ev.UserID)
	if err != nil {
		return err
	}
	if u != nil && u.IsBanned {
		t.reply(msgBanned, nil)
		return nil
	}
	if u != nil && u.IsParticipant {
		t.state = session.Idle{}
		t.replyKeyboard(msgWelcomeBack, mainMenuKeyboard())
		return nil
	}

	t.state = session.Registering{Stage: session.AwaitingPhone, ReferralCode: t.ev.Args}
	t.reply(msgWelcome, nil)
	t.replyKeyboard(msgSendPhone, phoneKeyboard())
	return nil
}

func (m *Machine) onContact(ctx context.Context, t *turn) error {
	reg, ok := t.state.(session.Registering)
	if !ok || reg.Stage != session.AwaitingPhone {
		m.log.Debug().Int64("user_id", t.ev.UserID).Msg("Contact outside registration")
		return nil
	}
	if t.ev.ContactUserID != t.ev.UserID {
		t.replyKeyboard(msgInvalidPhone, phoneKeyboard())
		return nil
	}

	res, err := m.Users.Register(ctx, usersvc.Registration{
		ID:           t.ev.UserID,
		Username:     t.ev.From.Username,
		FirstName:    t.ev.From.FirstName,
		LastName:     t.ev.From.LastName,
		Phone:        t.ev.ContactPhone,
		ReferralCode: reg.ReferralCode,
	})
	if err != nil {
		return err
	}
	if !res.Created {
		t.state = session.Idle{}
		m.notifyReferrer(t, res)
		if res.User.IsBanned {
			t.replyKeyboard(msgBanned, removeKeyboard())
			return nil
		}
		t.replyKeyboard(msgWelcomeBack, mainMenuKeyboard())
		return nil
	}

	chs, err := m.Channels.ListActive(ctx)
	// пользователь уже создан и реферер уже получил баллы: ответ не должен
	// потеряться из-за ошибки чтения каналов
	m.notifyReferrer(t, res)
	t.replyKeyboard(msgPhoneReceived, removeKeyboard())
	if err != nil {
		m.log.Error().Err(err).Int64("user_id", t.ev.UserID).Msg("Failed to list channels after registration")
		t.state = session.Registering{Stage: session.AwaitingSubscribe}
		t.reply(msgCheckLater, channelsKeyboard(nil))
		return nil
	}
	if len(chs) == 0 {
		t.state = session.Idle{}
		t.reply(msgNoChannels, nil)
		t.replyKeyboard(msgWelcomeBack, mainMenuKeyboard())
		return nil
	}
	t.state = session.Registering{Stage: session.AwaitingSubscribe}
	t.reply(textChannelList(msgSubscribe, chs), channelsKeyboard(chs))
	return nil
}

// notifyReferrer tells the referrer about a credit made by this registration.
func (m *Machine) notifyReferrer(t *turn, res *usersvc.RegisterResult) {
	if res.Referrer != nil {
		t.send(messaging.Outgoing{ChatID: res.Referrer.ID, Text: textReferralCredited(m.cfg.PerReferral)})
	}
}

func (m *Machine) onCheckSubscription(ctx context.Context, t *turn) error {
	u, err := m.Users.GetByID(ctx, t.ev.UserID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsParticipant {
		t.reply(msgNotRegistered, nil)
		return nil
	}
	if u.IsBanned {
		t.reply(msgBanned, nil)
		return nil
	}

	res, err := m.Gate.Check(ctx, u.ID)
	if err != nil {
		return err
	}
	if !res.AllSatisfied {
		if len(res.Unsatisfied) == 0 {
			t.toast = "⏳ Try again later"
			t.reply(msgCheckLater, nil)
			return nil
		}
		t.toast = "❌ Not subscribed yet"
		t.edit(textChannelList(msgNotSubscribed, res.Unsatisfied), channelsKeyboard(res.Unsatisfied))
		return nil
	}

	granted := false
	if !u.HasReceivedSubscriptionBonus && m.cfg.SubscriptionBonus > 0 {
		_, err := m.Ledger.GrantOnce(ctx, u.ID, m.cfg.SubscriptionBonus, bonusNote)
		switch {
		case err == nil:
			granted = true
		case errors.Is(err, user.ErrAlreadyGranted):
		default:
			return err
		}
	}

	if _, registering := t.state.(session.Registering); registering {
		t.state = session.Idle{}
	}
	if granted {
		t.edit(textBonus(m.cfg.SubscriptionBonus), nil)
	} else {
		t.edit(msgAllSubscribed, nil)
	}
	t.replyKeyboard(msgWelcomeBack, mainMenuKeyboard())
	return nil
}

// gated runs screen for users who passed the subscription gate. Admins
// bypass it; u is nil for an admin who never registered.
func (m *Machine) gated(ctx context.Context, t *turn, screen screenHandler) error {
	u, err := m.Users.GetByID(ctx, t.ev.UserID)
	if err != nil {
		return err
	}
	if m.IsAdmin(t.ev.UserID) {
		return screen(ctx, t, u)
	}
	if u == nil || !u.IsParticipant {
		t.reply(msgNotRegistered, nil)
		return nil
	}
	if u.IsBanned {
		t.reply(msgBanned, nil)
		return nil
	}

	res, err := m.Gate.Check(ctx, u.ID)
	if err != nil {
		return err
	}
	if !res.AllSatisfied {
		if len(res.Unsatisfied) == 0 {
			t.reply(msgCheckLater, nil)
			return nil
		}
		t.reply(textChannelList(msgLeftChannels, res.Unsatisfied), channelsKeyboard(res.Unsatisfied))
		return nil
	}
	return screen(ctx, t, u)
}

func (m *Machine) screenTable() map[string]screenHandler {
	return map[string]screenHandler{
		MenuContest: m.showContest,
		MenuPrizes:  m.showPrizes,
		MenuPoints:  m.showPoints,
		MenuRating:  m.showRating,
		MenuTerms:   m.showSetting(setting.KeyTerms),
		MenuContact: m.showSetting(setting.KeyContact),
	}
}

func (m *Machine) referralLink(u *user.User) string {
	if u == nil {
		return "-"
	}
	return tglinks.ReferralLink(m.cfg.BotUsername, u.ReferralCode)
}

func (m *Machine) showContest(ctx context.Context, t *turn, u *user.User) error {
	c, err := m.Contests.Active(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		t.reply(msgNoContest, nil)
		return nil
	}
	participants, err := m.Users.CountParticipants(ctx)
	if err != nil {
		return err
	}

	link := m.referralLink(u)
	text := textContest(c, participants, link, m.cfg.PerReferral, m.Contests.Location(), m.now())
	if c.ImageFileID != "" {
		t.send(messaging.Outgoing{Kind: messaging.KindPhoto, MediaFileID: c.ImageFileID, Text: text, Inline: shareKeyboard(link)})
		return nil
	}
	t.reply(text, shareKeyboard(link))
	return nil
}

func (m *Machine) showPrizes(ctx context.Context, t *turn, _ *user.User) error {
	c, err := m.Contests.Active(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		t.reply(msgNoContest, nil)
		return nil
	}
	t.reply(textPrizes(c), nil)
	return nil
}

func (m *Machine) showPoints(ctx context.Context, t *turn, u *user.User) error {
	if u == nil {
		t.reply(msgNotRegistered, nil)
		return nil
	}
	p, err := m.Users.Profile(ctx, u.ID)
	if err != nil {
		return err
	}
	link := m.referralLink(u)
	t.reply(textPoints(p, link, m.cfg.PerReferral), shareKeyboard(link))
	return nil
}

func (m *Machine) showRating(ctx context.Context, t *turn, u *user.User) error {
	top, err := m.Users.Top(ctx, usersvc.RatingSize)
	if err != nil {
		return err
	}
	var (
		me   *user.User
		rank int
	)
	if u != nil && !u.IsBanned {
		if rank, err = m.Users.Rank(ctx, u.ID); err != nil {
			return err
		}
		me = u
	}
	t.reply(textRating(top, me, rank), nil)
	return nil
}

func (m *Machine) showSetting(key string) screenHandler {
	return func(ctx context.Context, t *turn, _ *user.User) error {
		text, err := m.Settings.Get(ctx, key)
		if err != nil {
			return err
		}
		t.reply(text, nil)
		return nil
	}
}
