package denial

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, d *Denial) error {
	if d.ReasonCode == "" {
		return fmt.Errorf("reason_code is required")
	}
	if d.DeniedAmount < 0 {
		return fmt.Errorf("denied_amount cannot be negative")
	}
	if d.DeniedDate.IsZero() {
		d.DeniedDate = s.now()
	}
	d.Status = StatusDenied
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Denial, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Denial, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) CreateAppeal(ctx context.Context, a *Appeal) error {
	d, err := s.repo.GetByID(ctx, a.DenialID)
	if err != nil {
		return err
	}
	if d.Status == StatusOverturned || d.Status == StatusUpheld {
		return fmt.Errorf("%w: denial already resolved as %s", ErrInvalidState, d.Status)
	}
	a.Status = AppealDraft
	return s.repo.CreateAppeal(ctx, a)
}

func (s *Service) GetAppeal(ctx context.Context, id uuid.UUID) (*Appeal, error) {
	return s.repo.GetAppeal(ctx, id)
}

func (s *Service) ListAppeals(ctx context.Context, denialID uuid.UUID) ([]*Appeal, error) {
	return s.repo.ListAppealsByDenial(ctx, denialID)
}

// SubmitAppeal moves a draft appeal to submitted and flips the denial to
// appealed. Both writes commit together.
func (s *Service) SubmitAppeal(ctx context.Context, id uuid.UUID) (*Appeal, error) {
	a, err := s.repo.GetAppeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != AppealDraft {
		return nil, fmt.Errorf("%w: appeal is %s, only drafts can be submitted", ErrInvalidState, a.Status)
	}

	now := s.now()
	a.Status = AppealSubmitted
	a.SubmittedAt = &now

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateAppeal(ctx, a); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, a.DenialID, StatusAppealed)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ResolveAppeal records the payer's verdict and settles the denial: won
// overturns it, lost upholds it.
func (s *Service) ResolveAppeal(ctx context.Context, id uuid.UUID, outcome string) (*Appeal, error) {
	if outcome != AppealWon && outcome != AppealLost {
		return nil, fmt.Errorf("invalid appeal outcome: %s", outcome)
	}

	a, err := s.repo.GetAppeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != AppealSubmitted {
		return nil, fmt.Errorf("%w: appeal is %s, only submitted appeals can be resolved", ErrInvalidState, a.Status)
	}

	now := s.now()
	a.Status = outcome
	a.ResolvedAt = &now

	denialStatus := StatusUpheld
	if outcome == AppealWon {
		denialStatus = StatusOverturned
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateAppeal(ctx, a); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, a.DenialID, denialStatus)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
