package settings

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/setting"
)

// Тексты по умолчанию, пока админ не задал свои
const (
	DefaultTerms = `📋 <b>CONTEST TERMS</b>

✅ <b>Allowed:</b>
• Inviting friends
• Sharing on social networks

❌ <b>Forbidden:</b>
• Creating fake accounts
• Registering through bots
• Several accounts from one device

⚠️ <b>Warning:</b>
Participants caught cheating are removed from the contest and lose all points.`

	DefaultContact = `📞 <b>CONTACT</b>

For questions and suggestions write to the contest administrators.

⏰ Reply hours: 09:00 - 21:00`
)

var defaults = map[string]string{
	setting.KeyTerms:   DefaultTerms,
	setting.KeyContact: DefaultContact,
}

// Service reads and writes admin-editable texts.
type Service struct {
	repo setting.Repository
	log  zerolog.Logger
}

func NewService(repo setting.Repository) *Service {
	return &Service{repo: repo, log: logger.Component("settings")}
}

// Get returns the stored text or its built-in default.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", apperrors.NewDatabaseError("get setting", err).WithDetail("key", key)
	}
	if !ok {
		return defaults[key], nil
	}
	return v, nil
}

func (s *Service) Set(ctx context.Context, key, value string) (string, error) {
	if _, known := defaults[key]; !known {
		return "", apperrors.NewValidationError("key", "unknown setting")
	}
	value, err := validation.ValidateText(key, value, validation.MaxSettingLength)
	if err != nil {
		return "", err
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return "", apperrors.NewDatabaseError("set setting", err).WithDetail("key", key)
	}
	s.log.Info().Str("key", key).Int("length", len(value)).Msg("Setting updated")
	return value, nil
}
