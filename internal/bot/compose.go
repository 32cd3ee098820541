package bot

import (
	"context"
	"errors"

	"contest-bot/internal/common/validation"
	domain "contest-bot/internal/domain/broadcast"
	"contest-bot/internal/service/broadcast"
	"contest-bot/internal/session"
)

func (m *Machine) onBroadcastStart(_ context.Context, t *turn, _ Action) error {
	if m.Runner.Running(t.ev.UserID) {
		t.toast = msgBroadcastBusy
		return nil
	}
	t.state = session.BroadcastComposer{Step: session.StepBroadcast}
	t.edit(msgBroadcastCompose, composerCancelKeyboard())
	return nil
}

// composer returns the broadcast draft in progress. ok is false, with the
// admin notified, when there is none.
func composer(t *turn) (session.BroadcastComposer, bool) {
	c, ok := t.state.(session.BroadcastComposer)
	if !ok || !c.HasContent() {
		t.toast = msgNothingToSend
		return c, false
	}
	return c, true
}

func (m *Machine) onBroadcastAddButton(_ context.Context, t *turn, _ Action) error {
	c, ok := composer(t)
	if !ok {
		return nil
	}
	c.Step = session.StepBroadcastButtonName
	c.PendingButtonName = ""
	t.state = c
	t.reply(msgButtonName, composerCancelKeyboard())
	return nil
}

func (m *Machine) onBroadcastRemoveButtons(ctx context.Context, t *turn, _ Action) error {
	c, ok := composer(t)
	if !ok {
		return nil
	}
	c.Draft.Buttons = nil
	c.Step = session.StepBroadcast
	t.state = c
	return m.preview(ctx, t, c, true)
}

// onBroadcastConfirm snapshots the recipients and hands the draft to the
// runner. The composer is cleared as soon as the job is accepted.
func (m *Machine) onBroadcastConfirm(ctx context.Context, t *turn, _ Action) error {
	c, ok := composer(t)
	if !ok {
		return nil
	}
	recipients, err := m.Users.RecipientIDs(ctx)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		t.toast = msgBroadcastEmpty
		return nil
	}

	err = m.Runner.Start(broadcast.Job{
		OperatorID: t.ev.UserID,
		Message:    c.Draft,
		Recipients: recipients,
	})
	if errors.Is(err, broadcast.ErrAlreadyRunning) {
		t.toast = msgBroadcastBusy
		return nil
	}
	if err != nil {
		return err
	}

	t.state = session.Idle{}
	t.edit(msgBroadcastStarted, nil)
	return nil
}

func (m *Machine) stepBroadcastContent(ctx context.Context, t *turn) error {
	c := t.state.(session.BroadcastComposer)
	switch t.ev.Kind {
	case EventText:
		text, err := validation.ValidateText("text", t.ev.Text, validation.MaxBroadcastText)
		if err != nil {
			t.reply(textTooLong(validation.MaxBroadcastText), composerCancelKeyboard())
			return nil
		}
		c.Draft.Kind, c.Draft.Text, c.Draft.MediaFileID = domain.KindText, text, ""
	case EventMedia:
		if len([]rune(t.ev.Text)) > validation.MaxBroadcastCaption {
			t.reply(textTooLong(validation.MaxBroadcastCaption), composerCancelKeyboard())
			return nil
		}
		c.Draft.Kind = domain.KindPhoto
		if t.ev.MediaKind == MediaVideo {
			c.Draft.Kind = domain.KindVideo
		}
		c.Draft.Text, c.Draft.MediaFileID = t.ev.Text, t.ev.MediaFileID
	default:
		t.reply(msgBroadcastCompose, composerCancelKeyboard())
		return nil
	}
	t.state = c
	return m.preview(ctx, t, c, false)
}

func (m *Machine) stepBroadcastButtonName(_ context.Context, t *turn) error {
	c := t.state.(session.BroadcastComposer)
	name, err := validation.ValidateText("button", t.ev.Text, validation.MaxButtonTextLength)
	if err != nil || t.ev.Kind != EventText {
		t.reply(textTooLong(validation.MaxButtonTextLength)+"\n\n"+msgButtonName, composerCancelKeyboard())
		return nil
	}
	c.PendingButtonName = name
	c.Step = session.StepBroadcastButtonURL
	t.state = c
	t.reply(msgButtonURL, composerCancelKeyboard())
	return nil
}

func (m *Machine) stepBroadcastButtonURL(ctx context.Context, t *turn) error {
	c := t.state.(session.BroadcastComposer)
	url, err := validation.ValidateButtonURL(t.ev.Text)
	if err != nil || t.ev.Kind != EventText {
		t.reply(msgButtonBadURL, composerCancelKeyboard())
		return nil
	}
	c.Draft.Buttons = append(c.Draft.Buttons, domain.Button{Text: c.PendingButtonName, URL: url})
	c.PendingButtonName = ""
	c.Step = session.StepBroadcast
	t.state = c
	return m.preview(ctx, t, c, false)
}

// preview shows the draft with its recipient count. inPlace edits the
// message of the pressed button.
func (m *Machine) preview(ctx context.Context, t *turn, c session.BroadcastComposer, inPlace bool) error {
	n, err := m.Users.CountParticipants(ctx)
	if err != nil {
		return err
	}
	text := textBroadcastPreview(c.Draft, n)
	kb := broadcastPreviewKeyboard(len(c.Draft.Buttons) > 0)
	if inPlace {
		t.edit(text, kb)
	} else {
		t.reply(text, kb)
	}
	return nil
}
