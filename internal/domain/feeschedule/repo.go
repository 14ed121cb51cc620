package feeschedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("fee schedule not found")

type Repository interface {
	Create(ctx context.Context, fs *FeeSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*FeeSchedule, error)
	Update(ctx context.Context, fs *FeeSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status string, limit, offset int) ([]*FeeSchedule, int, error)

	// BulkInsertEntries inserts all entries for a schedule in one batch.
	BulkInsertEntries(ctx context.Context, scheduleID uuid.UUID, entries []Entry) error
	ListEntries(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Entry, int, error)

	// LookupAmount resolves one code's price on an active schedule.
	LookupAmount(ctx context.Context, scheduleID uuid.UUID, procedureCode string) (float64, error)

	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RateSource supplies base amounts for the medicare and charges pricing
// methods.
type RateSource interface {
	// MedicareRates returns the medicare base rate per procedure code. Empty
	// codes means all known codes.
	MedicareRates(ctx context.Context, codes []string) (map[string]float64, error)

	// AverageCharges returns the historical average billed charge per code.
	AverageCharges(ctx context.Context, codes []string) (map[string]float64, error)
}
