package contest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/common/validation"
	domain "contest-bot/internal/domain/contest"
)

// Service manages the single active contest.
type Service struct {
	repo domain.Repository
	loc  *time.Location
	now  func() time.Time
	log  zerolog.Logger
}

func NewService(repo domain.Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now, log: logger.Component("contest")}
}

// Location is the zone end dates are typed and shown in.
func (s *Service) Location() *time.Location { return s.loc }

// Active returns the running contest or nil.
func (s *Service) Active(ctx context.Context) (*domain.Contest, error) {
	c, err := s.repo.Active(ctx, s.now())
	if err != nil {
		return nil, apperrors.NewDatabaseError("get active contest", err)
	}
	return c, nil
}

func (s *Service) LastFinished(ctx context.Context) (*domain.Contest, error) {
	c, err := s.repo.LastFinished(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get last contest", err)
	}
	return c, nil
}

// ParseEndDate validates an admin-typed end date.
func (s *Service) ParseEndDate(raw string) (time.Time, error) {
	return domain.ParseEndDate(raw, s.loc, s.now())
}

// Create validates c and makes it the only active contest.
func (s *Service) Create(ctx context.Context, c *domain.Contest) error {
	var err error
	if c.Title, err = validation.ValidateText("title", c.Title, validation.MaxTitleLength); err != nil {
		return err
	}
	if c.Description, err = validation.ValidateText("description", c.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if c.Prizes, err = validation.ValidateText("prizes", c.Prizes, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if !c.EndDate.After(s.now()) {
		return domain.ErrDateInPast
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return apperrors.NewDatabaseError("create contest", err)
	}
	s.log.Info().Int64("contest_id", c.ID).Str("title", c.Title).Time("end_date", c.EndDate).Msg("Contest created")
	return nil
}

// UpdateActive applies p to the running contest. domain.ErrNotFound when
// there is none.
func (s *Service) UpdateActive(ctx context.Context, p domain.Patch) (*domain.Contest, error) {
	c, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.Update(ctx, c.ID, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("update contest", err)
	}
	s.log.Info().Int64("contest_id", c.ID).Msg("Contest updated")
	return s.Active(ctx)
}

// Stop deactivates the running contest. domain.ErrNotFound when there is
// none.
func (s *Service) Stop(ctx context.Context) (*domain.Contest, error) {
	c, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.Deactivate(ctx, c.ID); err != nil {
		return nil, apperrors.NewDatabaseError("stop contest", err)
	}
	s.log.Info().Int64("contest_id", c.ID).Msg("Contest stopped")
	return c, nil
}
