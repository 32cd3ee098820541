package bot

import (
	"context"
	"errors"
	"fmt"
	"html"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/domain/setting"
	"contest-bot/internal/service/channels"
	"contest-bot/internal/session"
)

const banReason = "Banned by admin"

func (m *Machine) onAdmin(_ context.Context, t *turn) error {
	if !m.IsAdmin(t.ev.UserID) {
		t.reply(msgNotAdmin, nil)
		return nil
	}
	if session.IsAdminFlow(t.state) {
		t.state = session.Idle{}
	}
	t.reply(msgAdminWelcome, adminMenuKeyboard())
	return nil
}

func (m *Machine) actionTable() map[string]actionHandler {
	return map[string]actionHandler{
		ActAdminBack:     m.onAdminBack,
		ActAdminStats:    m.showStats,
		ActAdminUsers:    m.showUsers,
		ActUsersPage:     m.showUsers,
		ActViewUser:      m.showUser,
		ActBanUser:       m.onBan,
		ActUnbanUser:     m.onUnban,
		ActAdminChannels: m.showChannels,
		ActToggleChannel: m.onToggleChannel,
		ActDeleteChannel: m.onDeleteChannel,
		ActAddChannel:    m.onAddChannel,

		ActAdminContest:      m.showAdminContest,
		ActContestCreate:     m.onContestCreate,
		ActContestEdit:       m.showContestEdit,
		ActContestEditTitle:  m.onContestEditField(session.StepEditContestTitle, msgEditTitle),
		ActContestEditDesc:   m.onContestEditField(session.StepEditContestDescription, msgEditDesc),
		ActContestEditPrizes: m.onContestEditField(session.StepEditContestPrizes, msgEditPrizes),
		ActContestEditImage:  m.onContestEditField(session.StepEditContestImage, msgEditImage),
		ActContestEditDate:   m.onContestEditField(session.StepEditContestDate, msgEditDate),
		ActContestStop:       m.onContestStop,
		ActContestResults:    m.showResults,

		ActAdminTerms:   m.showSettingAdmin(setting.KeyTerms),
		ActAdminContact: m.showSettingAdmin(setting.KeyContact),
		ActEditTerms:    m.onSettingEdit(session.StepEditTerms, msgEditTerms),
		ActEditContact:  m.onSettingEdit(session.StepEditContact, msgEditContact),

		ActAdminBroadcast:     m.onBroadcastStart,
		ActBroadcastAddButton: m.onBroadcastAddButton,
		ActBroadcastRmButtons: m.onBroadcastRemoveButtons,
		ActBroadcastConfirm:   m.onBroadcastConfirm,
		ActBroadcastCancel:    m.onAdminBack,
	}
}

// stepTable maps every admin step to the handler of its text and media
// input.
func (m *Machine) stepTable() map[session.Step]stepHandler {
	return map[session.Step]stepHandler{
		session.StepAddChannel: m.stepAddChannel,

		session.StepContestTitle:       m.stepContestTitle,
		session.StepContestDescription: m.stepContestDescription,
		session.StepContestPrizes:      m.stepContestPrizes,
		session.StepContestImage:       m.stepContestImage,
		session.StepContestDate:        m.stepContestDate,

		session.StepEditContestTitle:       m.stepEditContestText,
		session.StepEditContestDescription: m.stepEditContestText,
		session.StepEditContestPrizes:      m.stepEditContestText,
		session.StepEditContestImage:       m.stepEditContestImage,
		session.StepEditContestDate:        m.stepEditContestDate,

		session.StepEditTerms:   m.stepSetting,
		session.StepEditContact: m.stepSetting,

		session.StepBroadcast:           m.stepBroadcastContent,
		session.StepBroadcastButtonName: m.stepBroadcastButtonName,
		session.StepBroadcastButtonURL:  m.stepBroadcastButtonURL,
	}
}

// onAdminBack leaves any admin flow, dropping its drafts.
func (m *Machine) onAdminBack(_ context.Context, t *turn, a Action) error {
	if session.IsAdminFlow(t.state) {
		t.state = session.Idle{}
	}
	if a.Name == ActBroadcastCancel {
		t.toast = msgCancelled
	}
	t.edit(msgAdminWelcome, adminMenuKeyboard())
	return nil
}

func (m *Machine) showStats(ctx context.Context, t *turn, _ Action) error {
	s, err := m.Stats.Get(ctx)
	if err != nil {
		return err
	}
	t.edit(textStats(s), backKeyboard(ActAdminBack))
	return nil
}

func (m *Machine) showUsers(ctx context.Context, t *turn, a Action) error {
	p, err := m.Users.List(ctx, int(a.ID))
	if err != nil {
		return err
	}
	t.edit(textUsersPage(p), usersKeyboard(p))
	return nil
}

func (m *Machine) showUser(ctx context.Context, t *turn, a Action) error {
	u, err := m.Users.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if u == nil {
		t.toast = msgUserMissing
		return nil
	}
	rank, err := m.Users.Rank(ctx, u.ID)
	if err != nil {
		return err
	}
	referrals, err := m.Users.CountReferrals(ctx, u.ID)
	if err != nil {
		return err
	}
	t.edit(textUserDetails(u, rank, referrals), userDetailsKeyboard(u))
	return nil
}

func (m *Machine) onBan(ctx context.Context, t *turn, a Action) error {
	if err := m.Ledger.Ban(ctx, t.ev.UserID, a.ID, banReason); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUserNotFound) {
			t.toast = msgUserMissing
			return nil
		}
		return err
	}
	t.toast = "🚫 User banned"
	return m.showUser(ctx, t, a)
}

func (m *Machine) onUnban(ctx context.Context, t *turn, a Action) error {
	if err := m.Ledger.Unban(ctx, t.ev.UserID, a.ID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUserNotFound) {
			t.toast = msgUserMissing
			return nil
		}
		return err
	}
	t.toast = "✅ User unbanned"
	return m.showUser(ctx, t, a)
}

func (m *Machine) showChannels(ctx context.Context, t *turn, _ Action) error {
	chs, err := m.Channels.ListAll(ctx)
	if err != nil {
		return err
	}
	t.edit(textAdminChannels(chs), adminChannelsKeyboard(chs))
	return nil
}

func (m *Machine) onToggleChannel(ctx context.Context, t *turn, a Action) error {
	ch, err := m.Channels.Toggle(ctx, a.ID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeChannelNotFound) {
			t.toast = "❌ Channel not found"
			return m.showChannels(ctx, t, a)
		}
		return err
	}
	if ch.IsActive {
		t.toast = "🟢 Channel enabled"
	} else {
		t.toast = "🔴 Channel disabled"
	}
	return m.showChannels(ctx, t, a)
}

func (m *Machine) onDeleteChannel(ctx context.Context, t *turn, a Action) error {
	if err := m.Channels.Delete(ctx, a.ID); err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeChannelNotFound) {
			return err
		}
	}
	t.toast = "🗑 Channel deleted"
	return m.showChannels(ctx, t, a)
}

func (m *Machine) onAddChannel(_ context.Context, t *turn, _ Action) error {
	t.state = session.ChannelInput{}
	t.edit(msgChannelAdd, cancelKeyboard())
	return nil
}

func (m *Machine) stepAddChannel(ctx context.Context, t *turn) error {
	if t.ev.Kind != EventText {
		t.reply(msgChannelInvalid, cancelKeyboard())
		return nil
	}
	ch, err := m.Channels.Add(ctx, t.ev.Text)
	switch {
	case err == nil:
	case errors.Is(err, validation.ErrInviteLink):
		t.reply(msgChannelInvite, cancelKeyboard())
		return nil
	case errors.Is(err, validation.ErrInvalidChannelRef), errors.Is(err, validation.ErrEmpty):
		t.reply(msgChannelInvalid, cancelKeyboard())
		return nil
	case errors.Is(err, channel.ErrAlreadyExists):
		t.reply(msgChannelExists, cancelKeyboard())
		return nil
	case errors.Is(err, channels.ErrChatNotFound):
		t.reply(msgChannelNotFound, cancelKeyboard())
		return nil
	default:
		return err
	}

	t.state = session.Idle{}
	t.reply(fmt.Sprintf("✅ Channel added: <b>%s</b>", html.EscapeString(ch.Title)), nil)
	all, err := m.Channels.ListAll(ctx)
	if err != nil {
		return err
	}
	t.reply(textAdminChannels(all), adminChannelsKeyboard(all))
	return nil
}

func (m *Machine) showSettingAdmin(key string) actionHandler {
	title, edit := "📋 <b>Terms</b>", ActEditTerms
	if key == setting.KeyContact {
		title, edit = "📞 <b>Contact</b>", ActEditContact
	}
	return func(ctx context.Context, t *turn, _ Action) error {
		current, err := m.Settings.Get(ctx, key)
		if err != nil {
			return err
		}
		t.edit(textSettingAdmin(title, current), settingKeyboard(edit))
		return nil
	}
}

func (m *Machine) onSettingEdit(step session.Step, prompt string) actionHandler {
	return func(_ context.Context, t *turn, _ Action) error {
		t.state = session.SettingEdit{Step: step}
		t.reply(prompt, cancelKeyboard())
		return nil
	}
}

func (m *Machine) stepSetting(ctx context.Context, t *turn) error {
	edit, ok := t.state.(session.SettingEdit)
	if !ok {
		return nil
	}
	if _, err := validation.ValidateText(edit.Key(), t.ev.Text, validation.MaxSettingLength); err != nil || t.ev.Kind != EventText {
		t.reply(textTooLong(validation.MaxSettingLength), cancelKeyboard())
		return nil
	}
	if _, err := m.Settings.Set(ctx, edit.Key(), t.ev.Text); err != nil {
		return err
	}

	t.state = session.Idle{}
	if edit.Key() == setting.KeyContact {
		t.reply(msgContactSaved, nil)
	} else {
		t.reply(msgTermsSaved, nil)
	}
	t.reply(msgAdminWelcome, adminMenuKeyboard())
	return nil
}
