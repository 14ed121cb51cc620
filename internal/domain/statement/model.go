package statement

import (
	"time"

	"github.com/google/uuid"
)

// Statement statuses. Draft statements are editable; once issued the line
// items and totals are frozen.
const (
	StatusDraft  = "draft"
	StatusIssued = "issued"
	StatusSent   = "sent"
	StatusPaid   = "paid"
	StatusVoid   = "void"
)

// Statement maps to the statements table.
type Statement struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	PayerID       *uuid.UUID `db:"payer_id" json:"payer_id,omitempty"`
	FeeScheduleID *uuid.UUID `db:"fee_schedule_id" json:"fee_schedule_id,omitempty"`
	Status        string     `db:"status" json:"status"`
	Total         float64    `db:"total" json:"total"`
	IssuedAt      *time.Time `db:"issued_at" json:"issued_at,omitempty"`
	PaidAt        *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	LineItems []LineItem `db:"-" json:"line_items,omitempty"`
}

// LineItem maps to the statement_line_items table. Amount is always
// quantity × unit_amount, computed server-side.
type LineItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	StatementID   uuid.UUID `db:"statement_id" json:"statement_id"`
	ProcedureCode string    `db:"procedure_code" json:"procedure_code"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Quantity      int       `db:"quantity" json:"quantity"`
	UnitAmount    float64   `db:"unit_amount" json:"unit_amount"`
	Amount        float64   `db:"amount" json:"amount"`
}

// allowedTransitions is the statement status machine. Void is reachable from
// every non-terminal state; paid and void are terminal.
var allowedTransitions = map[string][]string{
	StatusDraft:  {StatusIssued, StatusVoid},
	StatusIssued: {StatusSent, StatusPaid, StatusVoid},
	StatusSent:   {StatusPaid, StatusVoid},
}

func CanTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
