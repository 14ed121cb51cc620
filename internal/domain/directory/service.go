package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	payers     PayerRepository
	facilities FacilityRepository
}

func NewService(payers PayerRepository, facilities FacilityRepository) *Service {
	return &Service{payers: payers, facilities: facilities}
}

func (s *Service) CreatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.payers.Create(ctx, p)
}

func (s *Service) GetPayer(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return s.payers.GetByID(ctx, id)
}

func (s *Service) UpdatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.payers.Update(ctx, p)
}

func (s *Service) DeletePayer(ctx context.Context, id uuid.UUID) error {
	return s.payers.Delete(ctx, id)
}

func (s *Service) ListPayers(ctx context.Context, activeOnly bool, limit, offset int) ([]*Payer, int, error) {
	return s.payers.List(ctx, activeOnly, limit, offset)
}

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.NPI != nil && len(*f.NPI) != 10 {
		return fmt.Errorf("npi must be 10 digits")
	}
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.facilities.Update(ctx, f)
}

func (s *Service) DeleteFacility(ctx context.Context, id uuid.UUID) error {
	return s.facilities.Delete(ctx, id)
}

func (s *Service) ListFacilities(ctx context.Context, activeOnly bool, limit, offset int) ([]*Facility, int, error) {
	return s.facilities.List(ctx, activeOnly, limit, offset)
}

// NamesByIDs satisfies the authorization normalizer's facility lookup.
func (s *Service) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.facilities.NamesByIDs(ctx, ids)
}
