package feeschedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo  Repository
	rates RateSource
}

func NewService(repo Repository, rates RateSource) *Service {
	return &Service{repo: repo, rates: rates}
}

// Create builds the schedule's entries with the requested pricing method and
// inserts the schedule plus all entries in one transaction.
func (s *Service) Create(ctx context.Context, fs *FeeSchedule, pricing PricingRequest) error {
	if fs.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := pricing.validate(); err != nil {
		return err
	}

	entries, err := s.buildEntries(ctx, pricing)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("pricing produced no entries")
	}

	fs.Method = pricing.Method
	fs.PercentAdjust = pricing.PercentAdjust
	fs.RoundUp = pricing.RoundUp
	if fs.Status == "" {
		fs.Status = StatusDraft
	}

	return s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, fs); err != nil {
			return err
		}
		return s.repo.BulkInsertEntries(ctx, fs.ID, entries)
	})
}

func (s *Service) buildEntries(ctx context.Context, p PricingRequest) ([]Entry, error) {
	switch p.Method {
	case MethodCopy:
		source, _, err := s.repo.ListEntries(ctx, *p.SourceScheduleID, 100000, 0)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(source))
		for _, e := range source {
			entries = append(entries, *e)
		}
		return PriceFromEntries(entries, p.PercentAdjust, p.RoundUp), nil

	case MethodMedicare:
		rates, err := s.rates.MedicareRates(ctx, p.ProcedureCodes)
		if err != nil {
			return nil, err
		}
		return PriceFromRates(rates, p.PercentAdjust, p.RoundUp), nil

	case MethodCharges:
		charges, err := s.rates.AverageCharges(ctx, p.ProcedureCodes)
		if err != nil {
			return nil, err
		}
		return PriceFromRates(charges, p.PercentAdjust, p.RoundUp), nil

	case MethodContract, MethodImport:
		return PriceFromRows(p.Rows)
	}
	return nil, fmt.Errorf("invalid pricing method: %s", p.Method)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*FeeSchedule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, fs *FeeSchedule) error {
	if fs.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Update(ctx, fs)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*FeeSchedule, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) ListEntries(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	if _, err := s.repo.GetByID(ctx, scheduleID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListEntries(ctx, scheduleID, limit, offset)
}

// Price resolves a procedure code against a schedule, for statement line
// pricing.
func (s *Service) Price(ctx context.Context, scheduleID uuid.UUID, procedureCode string) (float64, error) {
	return s.repo.LookupAmount(ctx, scheduleID, procedureCode)
}

// Activate flips a draft schedule live.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*FeeSchedule, error) {
	fs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fs.Status == StatusActive {
		return fs, nil
	}
	if fs.Status == StatusArchived {
		return nil, fmt.Errorf("cannot activate an archived schedule")
	}
	fs.Status = StatusActive
	if err := s.repo.Update(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}
