package stats

import (
	"context"

	"contest-bot/internal/service/channels"
	"contest-bot/internal/service/contest"
	"contest-bot/internal/service/user"
)

// Stats is the admin overview.
type Stats struct {
	Participants  int   `json:"participants"`
	TotalPoints   int64 `json:"total_points"`
	Channels      int   `json:"channels"`
	ActiveContest bool  `json:"active_contest"`
}

type Service struct {
	users    *user.Service
	channels *channels.Service
	contests *contest.Service
}

func NewService(users *user.Service, chs *channels.Service, contests *contest.Service) *Service {
	return &Service{users: users, channels: chs, contests: contests}
}

func (s *Service) Get(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Participants, err = s.users.CountParticipants(ctx); err != nil {
		return nil, err
	}
	if st.TotalPoints, err = s.users.TotalPoints(ctx); err != nil {
		return nil, err
	}
	chs, err := s.channels.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	st.Channels = len(chs)
	active, err := s.contests.Active(ctx)
	if err != nil {
		return nil, err
	}
	st.ActiveContest = active != nil
	return &st, nil
}
