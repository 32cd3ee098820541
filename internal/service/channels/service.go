package channels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/cache"
	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/common/validation"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/platform/telegram"
)

// ErrChatNotFound means getChat could not resolve the reference, usually
// because the bot is not an administrator of the channel.
var ErrChatNotFound = errors.New("chat not found or bot is not an admin")

const activeTTL = 30 * time.Second

// ChatResolver looks up chats through the Bot API.
type ChatResolver interface {
	GetChat(ctx context.Context, chatRef string) (*telegram.Chat, error)
	CreateChatInviteLink(ctx context.Context, chatRef string) (string, error)
}

// Service manages gating channels. The active set is cached briefly in
// Redis and dropped on every write.
type Service struct {
	repo  channel.Repository
	chats ChatResolver
	cache *cache.CacheService
	log   zerolog.Logger
}

func NewService(repo channel.Repository, chats ChatResolver, c *cache.CacheService) *Service {
	return &Service{repo: repo, chats: chats, cache: c, log: logger.Component("channels")}
}

// ListActive returns the channels gating currently applies to.
func (s *Service) ListActive(ctx context.Context) ([]channel.Channel, error) {
	var out []channel.Channel
	err := s.cache.GetOrSet(ctx, cache.KeyActiveChannels, &out, activeTTL, func() (interface{}, error) {
		return s.repo.ListActive(ctx)
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list active channels", err)
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context) ([]channel.Channel, error) {
	chs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list channels", err)
	}
	return chs, nil
}

// Add resolves admin input into a channel and stores it as active.
// Input errors come back as validation sentinels, channel.ErrAlreadyExists
// or ErrChatNotFound.
func (s *Service) Add(ctx context.Context, input string) (*channel.Channel, error) {
	ref, err := validation.NormalizeChannelRef(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get channel", err)
	}
	if existing != nil {
		return nil, channel.ErrAlreadyExists
	}

	chat, err := s.chats.GetChat(ctx, ref)
	if err != nil {
		if telegram.IsUnavailable(err) {
			return nil, apperrors.NewTelegramAPIError("getChat", err)
		}
		s.log.Warn().Err(err).Str("channel", ref).Msg("Channel lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrChatNotFound, err)
	}

	ch := &channel.Channel{
		Ref:       ref,
		ChatID:    chat.ID,
		Title:     chat.Title,
		IsActive:  true,
		IsPrivate: chat.Username == "",
	}
	if ch.Title == "" {
		ch.Title = ref
	}
	if validation.IsNumericChatID(ref) {
		ch.InviteLink = s.inviteLink(ctx, ref, chat)
	}

	if err := s.repo.Create(ctx, ch); err != nil {
		if errors.Is(err, channel.ErrAlreadyExists) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("create channel", err)
	}
	s.invalidate(ctx)

	s.log.Info().Str("channel", ch.Ref).Int64("chat_id", ch.ChatID).Str("title", ch.Title).Msg("Channel added")
	return ch, nil
}

// inviteLink prefers the chat's primary link and creates one otherwise.
// A channel without a link still works for gating, so failures only log.
func (s *Service) inviteLink(ctx context.Context, ref string, chat *telegram.Chat) string {
	if chat.InviteLink != "" {
		return chat.InviteLink
	}
	link, err := s.chats.CreateChatInviteLink(ctx, ref)
	if err != nil {
		s.log.Warn().Err(err).Str("channel", ref).Msg("Failed to create invite link")
		return ""
	}
	return link
}

func (s *Service) Toggle(ctx context.Context, id int64) (*channel.Channel, error) {
	ch, err := s.repo.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return nil, apperrors.NewChannelNotFoundError(fmt.Sprint(id))
		}
		return nil, apperrors.NewDatabaseError("toggle channel", err)
	}
	s.invalidate(ctx)
	s.log.Info().Int64("channel_id", id).Bool("active", ch.IsActive).Msg("Channel toggled")
	return ch, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return apperrors.NewChannelNotFoundError(fmt.Sprint(id))
		}
		return apperrors.NewDatabaseError("delete channel", err)
	}
	s.invalidate(ctx)
	s.log.Info().Int64("channel_id", id).Msg("Channel deleted")
	return nil
}

// DeactivateByChatID stops gating on a chat the bot was removed from.
func (s *Service) DeactivateByChatID(ctx context.Context, chatID int64) (int, error) {
	n, err := s.repo.DeactivateByChatID(ctx, chatID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("deactivate channel", err)
	}
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateChannels(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate channel cache")
	}
}
