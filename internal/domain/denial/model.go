package denial

import (
	"time"

	"github.com/google/uuid"
)

// Denial statuses. A denial starts as "denied" and moves to "appealed" when
// an appeal is submitted, then to the appeal's outcome.
const (
	StatusDenied     = "denied"
	StatusAppealed   = "appealed"
	StatusOverturned = "overturned"
	StatusUpheld     = "upheld"
)

// Appeal statuses.
const (
	AppealDraft     = "draft"
	AppealSubmitted = "submitted"
	AppealWon       = "won"
	AppealLost      = "lost"
)

// Denial maps to the denials table.
type Denial struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	AuthorizationID   *uuid.UUID `db:"authorization_id" json:"authorization_id,omitempty"`
	ClaimNumber       *string    `db:"claim_number" json:"claim_number,omitempty"`
	PayerID           *uuid.UUID `db:"payer_id" json:"payer_id,omitempty"`
	ReasonCode        string     `db:"reason_code" json:"reason_code"`
	ReasonDescription *string    `db:"reason_description" json:"reason_description,omitempty"`
	DeniedAmount      float64    `db:"denied_amount" json:"denied_amount"`
	Status            string     `db:"status" json:"status"`
	DeniedDate        time.Time  `db:"denied_date" json:"denied_date"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Appeal maps to the appeals table.
type Appeal struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DenialID    uuid.UUID  `db:"denial_id" json:"denial_id"`
	Status      string     `db:"status" json:"status"`
	Deadline    *time.Time `db:"deadline" json:"deadline,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
