package user

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	domain "contest-bot/internal/domain/user"
	"contest-bot/internal/service/ledger"
)

const (
	PageSize    = 15
	RatingSize  = 10
	ResultsSize = 20
	HistorySize = 5

	codeAttempts = 5
)

// Service orchestrates registration and participant queries.
type Service struct {
	repo        domain.Repository
	ledger      *ledger.Ledger
	perReferral int64
	log         zerolog.Logger
}

func NewService(repo domain.Repository, l *ledger.Ledger, perReferral int64) *Service {
	return &Service{repo: repo, ledger: l, perReferral: perReferral, log: logger.Component("users")}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err).WithUserID(id)
	}
	return u, nil
}

// Registration is the profile captured from the contact share.
type Registration struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Phone        string
	ReferralCode string
}

// RegisterResult describes what registration did. Referrer is set only
// when a credit was applied.
type RegisterResult struct {
	User     *domain.User
	Referrer *domain.User
	Created  bool
}

// Register creates the participant and credits the referrer. An existing
// user is returned with Created false; a referral credit that failed on an
// earlier attempt is retried, the unique credit key keeps it exactly once.
// Unknown and self-referral codes are ignored.
func (s *Service) Register(ctx context.Context, r Registration) (*RegisterResult, error) {
	existing, err := s.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.settleReferral(ctx, &RegisterResult{User: existing})
	}

	referrer, err := s.resolveReferrer(ctx, r)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:            r.ID,
		Username:      r.Username,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Phone:         r.Phone,
		IsParticipant: true,
	}
	if referrer != nil {
		u.ReferredBy = &referrer.ID
	}
	if err := s.create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// повторная доставка того же контакта
			if again, getErr := s.GetByID(ctx, r.ID); getErr == nil && again != nil {
				return s.settleReferral(ctx, &RegisterResult{User: again})
			}
		}
		return nil, err
	}
	s.log.Info().Int64("user_id", u.ID).Bool("referred", referrer != nil).Msg("Participant registered")

	return s.settleReferral(ctx, &RegisterResult{User: u, Created: true})
}

// settleReferral credits res.User's referrer unless that already happened.
func (s *Service) settleReferral(ctx context.Context, res *RegisterResult) (*RegisterResult, error) {
	u := res.User
	if u.ReferredBy == nil || *u.ReferredBy == u.ID {
		return res, nil
	}
	referrer, err := s.GetByID(ctx, *u.ReferredBy)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		return res, nil
	}

	if _, err := s.ledger.CreditReferral(ctx, referrer.ID, u.ID, s.perReferral); err != nil {
		if errors.Is(err, domain.ErrDuplicateCredit) {
			return res, nil
		}
		return nil, err
	}
	res.Referrer = referrer
	return res, nil
}

func (s *Service) resolveReferrer(ctx context.Context, r Registration) (*domain.User, error) {
	code := strings.ToUpper(strings.TrimSpace(r.ReferralCode))
	if code == "" {
		return nil, nil
	}
	referrer, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, apperrors.NewDatabaseError("resolve referral code", err)
	}
	if referrer == nil || referrer.ID == r.ID {
		return nil, nil
	}
	return referrer, nil
}

// create assigns a fresh referral code, retrying on the rare collision.
func (s *Service) create(ctx context.Context, u *domain.User) error {
	for i := 0; i < codeAttempts; i++ {
		code, err := domain.NewReferralCode()
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate referral code")
		}
		u.ReferralCode = code

		err = s.repo.Create(ctx, u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return apperrors.NewDatabaseError("create user", err).WithUserID(u.ID)
		}
		if taken, _ := s.repo.GetByID(ctx, u.ID); taken != nil {
			return domain.ErrAlreadyExists
		}
	}
	return apperrors.New(apperrors.ErrCodeInternal, "could not allocate a unique referral code")
}

// Profile is the data of the "my points" screen.
type Profile struct {
	User      *domain.User
	Referrals int
	Rank      int
	History   []domain.PointEntry
}

func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewUserNotFoundError(id)
	}
	p := &Profile{User: u}
	if p.Referrals, err = s.repo.CountReferrals(ctx, id); err != nil {
		return nil, apperrors.NewDatabaseError("count referrals", err).WithUserID(id)
	}
	if p.Rank, err = s.repo.Rank(ctx, id); err != nil {
		return nil, apperrors.NewDatabaseError("rank user", err).WithUserID(id)
	}
	if p.History, err = s.repo.History(ctx, id, HistorySize); err != nil {
		return nil, apperrors.NewDatabaseError("points history", err).WithUserID(id)
	}
	return p, nil
}

// Top returns the best non-banned participants.
func (s *Service) Top(ctx context.Context, limit int) ([]domain.User, error) {
	users, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("top users", err)
	}
	return users, nil
}

func (s *Service) Rank(ctx context.Context, id int64) (int, error) {
	rank, err := s.repo.Rank(ctx, id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("rank user", err).WithUserID(id)
	}
	return rank, nil
}

// Page is one page of the admin participant list. Page numbers start at 0.
type Page struct {
	Users []domain.User
	Total int
	Page  int
	Pages int
}

func (s *Service) List(ctx context.Context, page int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	users, total, err := s.repo.List(ctx, PageSize, page*PageSize)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	pages := (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	return &Page{Users: users, Total: total, Page: page, Pages: pages}, nil
}

// RecipientIDs snapshots every non-banned participant.
func (s *Service) RecipientIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.RecipientIDs(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("recipient snapshot", err)
	}
	return ids, nil
}

func (s *Service) CountParticipants(ctx context.Context) (int, error) {
	n, err := s.repo.CountParticipants(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count participants", err)
	}
	return n, nil
}

func (s *Service) TotalPoints(ctx context.Context) (int64, error) {
	n, err := s.repo.TotalPoints(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("total points", err)
	}
	return n, nil
}

func (s *Service) CountReferrals(ctx context.Context, id int64) (int, error) {
	n, err := s.repo.CountReferrals(ctx, id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count referrals", err).WithUserID(id)
	}
	return n, nil
}
