// Package session keeps the per-user conversation state between updates.
//
// A session is exactly one State. Registration and admin flows are separate
// variants, so a user can never be registering and editing at once.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/setting"
)

// Kind tags a State variant in its stored form.
type Kind string

const (
	KindIdle              Kind = "idle"
	KindRegistering       Kind = "registering"
	KindChannelInput      Kind = "channel_input"
	KindContestWizard     Kind = "contest_wizard"
	KindContestEdit       Kind = "contest_edit"
	KindSettingEdit       Kind = "setting_edit"
	KindBroadcastComposer Kind = "broadcast_composer"
)

// Step is an admin step tag. The bot dispatches admin input on it.
type Step string

const (
	StepNone Step = ""

	StepAddChannel Step = "add_channel"

	StepContestTitle       Step = "contest_title"
	StepContestDescription Step = "contest_description"
	StepContestPrizes      Step = "contest_prizes"
	StepContestImage       Step = "contest_image"
	StepContestDate        Step = "contest_date"

	StepEditContestTitle       Step = "edit_contest_title"
	StepEditContestDescription Step = "edit_contest_description"
	StepEditContestPrizes      Step = "edit_contest_prizes"
	StepEditContestImage       Step = "edit_contest_image"
	StepEditContestDate        Step = "edit_contest_date"

	StepEditTerms   Step = "edit_terms"
	StepEditContact Step = "edit_contact"

	StepBroadcast           Step = "broadcast"
	StepBroadcastButtonName Step = "broadcast_button_name"
	StepBroadcastButtonURL  Step = "broadcast_button_url"
)

// State is one variant of the conversation state.
type State interface {
	Kind() Kind
	// AdminStep is the admin step tag, StepNone outside admin flows.
	AdminStep() Step
}

type Idle struct{}

func (Idle) Kind() Kind      { return KindIdle }
func (Idle) AdminStep() Step { return StepNone }

// RegistrationStage is how far an unregistered user got.
type RegistrationStage string

const (
	AwaitingPhone     RegistrationStage = "phone"
	AwaitingSubscribe RegistrationStage = "subscribe"
)

type Registering struct {
	Stage        RegistrationStage `json:"stage"`
	ReferralCode string            `json:"referral_code,omitempty"`
}

func (Registering) Kind() Kind      { return KindRegistering }
func (Registering) AdminStep() Step { return StepNone }

type ChannelInput struct{}

func (ChannelInput) Kind() Kind      { return KindChannelInput }
func (ChannelInput) AdminStep() Step { return StepAddChannel }

// ContestDraft accumulates wizard input until the contest is created.
type ContestDraft struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Prizes      string `json:"prizes,omitempty"`
	ImageFileID string `json:"image_file_id,omitempty"`
}

type ContestWizard struct {
	Step  Step         `json:"step"`
	Draft ContestDraft `json:"draft"`
}

func (ContestWizard) Kind() Kind        { return KindContestWizard }
func (w ContestWizard) AdminStep() Step { return w.Step }

// ContestEdit waits for a single replacement value of the active contest.
type ContestEdit struct {
	Step Step `json:"step"`
}

func (ContestEdit) Kind() Kind        { return KindContestEdit }
func (e ContestEdit) AdminStep() Step { return e.Step }

type SettingEdit struct {
	Step Step `json:"step"`
}

func (SettingEdit) Kind() Kind        { return KindSettingEdit }
func (e SettingEdit) AdminStep() Step { return e.Step }

// Key is the setting key edited in this step.
func (e SettingEdit) Key() string {
	if e.Step == StepEditContact {
		return setting.KeyContact
	}
	return setting.KeyTerms
}

type BroadcastComposer struct {
	Step              Step              `json:"step"`
	Draft             broadcast.Message `json:"draft"`
	PendingButtonName string            `json:"pending_button_name,omitempty"`
}

func (BroadcastComposer) Kind() Kind        { return KindBroadcastComposer }
func (b BroadcastComposer) AdminStep() Step { return b.Step }

// HasContent reports whether the draft can be sent.
func (b BroadcastComposer) HasContent() bool {
	return b.Draft.MediaFileID != "" || b.Draft.Text != ""
}

// Session is the stored record for one user.
type Session struct {
	UserID    int64
	State     State
	UpdatedAt time.Time
}

// IsAdminFlow reports whether s is inside an admin flow.
func IsAdminFlow(s State) bool {
	return s != nil && s.AdminStep() != StepNone
}

type envelope struct {
	Kind      Kind            `json:"kind"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Marshal encodes s with its variant tag.
func Marshal(s *Session) ([]byte, error) {
	st := s.State
	if st == nil {
		st = Idle{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode %s state: %w", st.Kind(), err)
	}
	return json.Marshal(envelope{Kind: st.Kind(), Data: data, UpdatedAt: s.UpdatedAt})
}

// Unmarshal decodes a session written by Marshal.
func Unmarshal(userID int64, raw []byte) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode session envelope: %w", err)
	}

	var (
		st  State
		err error
	)
	switch env.Kind {
	case KindIdle:
		st = Idle{}
	case KindRegistering:
		st, err = decode[Registering](env.Data)
	case KindChannelInput:
		st = ChannelInput{}
	case KindContestWizard:
		st, err = decode[ContestWizard](env.Data)
	case KindContestEdit:
		st, err = decode[ContestEdit](env.Data)
	case KindSettingEdit:
		st, err = decode[SettingEdit](env.Data)
	case KindBroadcastComposer:
		st, err = decode[BroadcastComposer](env.Data)
	default:
		return nil, fmt.Errorf("unknown session kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s state: %w", env.Kind, err)
	}
	return &Session{UserID: userID, State: st, UpdatedAt: env.UpdatedAt}, nil
}

func decode[T State](data json.RawMessage) (State, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
