package statement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Pricer resolves a procedure code's amount on a fee schedule. Satisfied by
// the feeschedule service.
type Pricer interface {
	Price(ctx context.Context, scheduleID uuid.UUID, procedureCode string) (float64, error)
}

type Service struct {
	repo   Repository
	pricer Pricer
}

func NewService(repo Repository, pricer Pricer) *Service {
	return &Service{repo: repo, pricer: pricer}
}

// Create prices each line item and computes the total server-side. A line
// with an explicit unit_amount keeps it; otherwise the statement's fee
// schedule prices the code. Caller-supplied totals are ignored.
func (s *Service) Create(ctx context.Context, st *Statement) error {
	if st.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if st.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if len(st.LineItems) == 0 {
		return fmt.Errorf("at least one line item is required")
	}

	st.Status = StatusDraft
	st.Total = 0
	for i := range st.LineItems {
		li := &st.LineItems[i]
		if li.ProcedureCode == "" {
			return fmt.Errorf("line %d missing procedure_code", i+1)
		}
		if li.Quantity <= 0 {
			li.Quantity = 1
		}
		if li.UnitAmount == 0 {
			if st.FeeScheduleID == nil {
				return fmt.Errorf("line %d has no unit_amount and the statement has no fee schedule", i+1)
			}
			amount, err := s.pricer.Price(ctx, *st.FeeScheduleID, li.ProcedureCode)
			if err != nil {
				return fmt.Errorf("pricing %s: %w", li.ProcedureCode, err)
			}
			li.UnitAmount = amount
		}
		if li.UnitAmount < 0 {
			return fmt.Errorf("line %d has a negative unit_amount", i+1)
		}
		li.Amount = float64(li.Quantity) * li.UnitAmount
		st.Total += li.Amount
	}

	return s.repo.Create(ctx, st)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Statement, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, patientID *uuid.UUID, limit, offset int) ([]*Statement, int, error) {
	return s.repo.List(ctx, status, patientID, limit, offset)
}

// Transition moves a statement along the draft→issued→sent→paid chain, or
// voids it.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to string) (*Statement, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(st.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, st.Status, to)
	}

	switch to {
	case StatusIssued:
		err = s.repo.SetIssued(ctx, id)
	case StatusPaid:
		err = s.repo.SetPaid(ctx, id)
	default:
		err = s.repo.UpdateStatus(ctx, id, to)
	}
	if err != nil {
		return nil, err
	}
	st.Status = to
	return st, nil
}
