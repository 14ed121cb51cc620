package feeschedule

import (
	"time"

	"github.com/google/uuid"
)

// Pricing methods. Exactly one applies per schedule; each consumes a
// different input set.
const (
	MethodCopy     = "copy"     // source schedule entries, percent adjusted
	MethodMedicare = "medicare" // medicare base rates, percent adjusted
	MethodContract = "contract" // flat contract amounts supplied by the payer
	MethodCharges  = "charges"  // historical average charges, percent adjusted
	MethodImport   = "import"   // explicit rows supplied by the caller
)

const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// FeeSchedule maps to the fee_schedules table.
type FeeSchedule struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	PayerID       *uuid.UUID `db:"payer_id" json:"payer_id,omitempty"`
	Method        string     `db:"method" json:"method"`
	PercentAdjust float64    `db:"percent_adjust" json:"percent_adjust"`
	RoundUp       bool       `db:"round_up" json:"round_up"`
	Status        string     `db:"status" json:"status"`
	EffectiveDate *time.Time `db:"effective_date" json:"effective_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Entry maps to the fee_schedule_entries table.
type Entry struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ScheduleID    uuid.UUID `db:"schedule_id" json:"schedule_id"`
	ProcedureCode string    `db:"procedure_code" json:"procedure_code"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Amount        float64   `db:"amount" json:"amount"`
}

func ValidMethod(m string) bool {
	switch m {
	case MethodCopy, MethodMedicare, MethodContract, MethodCharges, MethodImport:
		return true
	}
	return false
}
