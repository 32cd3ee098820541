package bot

import (
	"context"
	"errors"
	"time"

	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/contest"
	usersvc "contest-bot/internal/service/user"
	"contest-bot/internal/session"
)

func (m *Machine) showAdminContest(ctx context.Context, t *turn, _ Action) error {
	active, err := m.Contests.Active(ctx)
	if err != nil {
		return err
	}
	finished, err := m.Contests.LastFinished(ctx)
	if err != nil {
		return err
	}
	t.edit(textAdminContest(active, m.Contests.Location(), m.now()), adminContestKeyboard(active != nil, finished != nil))
	return nil
}

func (m *Machine) onContestCreate(_ context.Context, t *turn, _ Action) error {
	t.state = session.ContestWizard{Step: session.StepContestTitle}
	t.edit(msgContestTitle, cancelKeyboard())
	return nil
}

func (m *Machine) showContestEdit(ctx context.Context, t *turn, a Action) error {
	c, err := m.Contests.Active(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		t.toast = msgContestMissing
		return m.showAdminContest(ctx, t, a)
	}
	t.edit(textContestEdit(c, m.Contests.Location()), contestEditKeyboard())
	return nil
}

func (m *Machine) onContestEditField(step session.Step, prompt string) actionHandler {
	return func(_ context.Context, t *turn, _ Action) error {
		t.state = session.ContestEdit{Step: step}
		t.reply(prompt, cancelKeyboard())
		return nil
	}
}

func (m *Machine) onContestStop(ctx context.Context, t *turn, _ Action) error {
	if _, err := m.Contests.Stop(ctx); err != nil {
		if !errors.Is(err, contest.ErrNotFound) {
			return err
		}
		t.toast = msgContestMissing
	}
	t.edit(msgContestStopped, nil)
	t.reply(msgAdminWelcome, adminMenuKeyboard())
	return nil
}

func (m *Machine) showResults(ctx context.Context, t *turn, _ Action) error {
	top, err := m.Users.Top(ctx, usersvc.ResultsSize)
	if err != nil {
		return err
	}
	t.edit(textResults(top), resultsKeyboard(top))
	return nil
}

// wizardText validates the text of a wizard step. ok is false when the
// user was asked to try again.
func wizardText(t *turn, field string, max int, prompt string) (string, bool) {
	if t.ev.Kind != EventText {
		t.reply(prompt, cancelKeyboard())
		return "", false
	}
	v, err := validation.ValidateText(field, t.ev.Text, max)
	if err != nil {
		t.reply(textTooLong(max)+"\n\n"+prompt, cancelKeyboard())
		return "", false
	}
	return v, true
}

func (m *Machine) stepContestTitle(_ context.Context, t *turn) error {
	w := t.state.(session.ContestWizard)
	v, ok := wizardText(t, "title", validation.MaxTitleLength, msgContestTitle)
	if !ok {
		return nil
	}
	w.Draft.Title = v
	w.Step = session.StepContestDescription
	t.state = w
	t.reply(msgContestDesc, cancelKeyboard())
	return nil
}

func (m *Machine) stepContestDescription(_ context.Context, t *turn) error {
	w := t.state.(session.ContestWizard)
	v, ok := wizardText(t, "description", validation.MaxDescriptionLength, msgContestDesc)
	if !ok {
		return nil
	}
	w.Draft.Description = v
	w.Step = session.StepContestPrizes
	t.state = w
	t.reply(msgContestPrizes, cancelKeyboard())
	return nil
}

func (m *Machine) stepContestPrizes(_ context.Context, t *turn) error {
	w := t.state.(session.ContestWizard)
	v, ok := wizardText(t, "prizes", validation.MaxDescriptionLength, msgContestPrizes)
	if !ok {
		return nil
	}
	w.Draft.Prizes = v
	w.Step = session.StepContestImage
	t.state = w
	t.reply(msgContestImage, cancelKeyboard())
	return nil
}

func (m *Machine) stepContestImage(_ context.Context, t *turn) error {
	w := t.state.(session.ContestWizard)
	switch {
	case t.ev.Kind == EventMedia && t.ev.MediaKind == MediaPhoto:
		w.Draft.ImageFileID = t.ev.MediaFileID
	case t.ev.Kind == EventCommand && t.ev.Command == "skip":
		w.Draft.ImageFileID = ""
	default:
		t.reply(msgContestImage, cancelKeyboard())
		return nil
	}
	w.Step = session.StepContestDate
	t.state = w
	t.reply(msgContestDate, cancelKeyboard())
	return nil
}

func (m *Machine) stepContestDate(ctx context.Context, t *turn) error {
	w := t.state.(session.ContestWizard)
	end, ok := m.parseDate(t)
	if !ok {
		return nil
	}
	c := &contest.Contest{
		Title:       w.Draft.Title,
		Description: w.Draft.Description,
		Prizes:      w.Draft.Prizes,
		ImageFileID: w.Draft.ImageFileID,
		EndDate:     end,
	}
	if err := m.Contests.Create(ctx, c); err != nil {
		return err
	}

	t.state = session.Idle{}
	t.reply(msgContestCreated, nil)
	t.reply(textAdminContest(c, m.Contests.Location(), m.now()), adminContestKeyboard(true, false))
	return nil
}

// parseDate reads a future end date from the event, reprompting on bad
// input.
func (m *Machine) parseDate(t *turn) (time.Time, bool) {
	if t.ev.Kind != EventText {
		t.reply(msgContestBadDate, cancelKeyboard())
		return time.Time{}, false
	}
	end, err := m.Contests.ParseEndDate(t.ev.Text)
	switch {
	case err == nil:
		return end, true
	case errors.Is(err, contest.ErrDateInPast):
		t.reply(msgContestPastDate, cancelKeyboard())
	default:
		t.reply(msgContestBadDate, cancelKeyboard())
	}
	return time.Time{}, false
}

func (m *Machine) stepEditContestText(ctx context.Context, t *turn) error {
	var (
		p      contest.Patch
		v      string
		ok     bool
		prompt string
	)
	switch t.state.AdminStep() {
	case session.StepEditContestTitle:
		prompt = msgEditTitle
		v, ok = wizardText(t, "title", validation.MaxTitleLength, prompt)
		p.Title = &v
	case session.StepEditContestDescription:
		prompt = msgEditDesc
		v, ok = wizardText(t, "description", validation.MaxDescriptionLength, prompt)
		p.Description = &v
	default:
		prompt = msgEditPrizes
		v, ok = wizardText(t, "prizes", validation.MaxDescriptionLength, prompt)
		p.Prizes = &v
	}
	if !ok {
		return nil
	}
	return m.applyContestPatch(ctx, t, p)
}

func (m *Machine) stepEditContestImage(ctx context.Context, t *turn) error {
	if t.ev.Kind != EventMedia || t.ev.MediaKind != MediaPhoto {
		t.reply(msgSendImage, cancelKeyboard())
		return nil
	}
	id := t.ev.MediaFileID
	return m.applyContestPatch(ctx, t, contest.Patch{ImageFileID: &id})
}

func (m *Machine) stepEditContestDate(ctx context.Context, t *turn) error {
	end, ok := m.parseDate(t)
	if !ok {
		return nil
	}
	return m.applyContestPatch(ctx, t, contest.Patch{EndDate: &end})
}

// applyContestPatch updates the active contest. Without one the admin is
// told so and the step is kept.
func (m *Machine) applyContestPatch(ctx context.Context, t *turn, p contest.Patch) error {
	c, err := m.Contests.UpdateActive(ctx, p)
	if err != nil {
		if errors.Is(err, contest.ErrNotFound) {
			t.reply(msgContestMissing, cancelKeyboard())
			return nil
		}
		return err
	}
	t.state = session.Idle{}
	t.reply(msgContestUpdated, nil)
	if c != nil {
		t.reply(textContestEdit(c, m.Contests.Location()), contestEditKeyboard())
	}
	return nil
}
