package authorization

import (
	"time"

	"github.com/google/uuid"
)

// Stored statuses. "expired" and "exhausted" are display labels derived at
// read time, never written to the status column.
const (
	StatusDraft       = "draft"
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusDenied      = "denied"

	DisplayExpired   = "expired"
	DisplayExhausted = "exhausted"
)

// Urgency levels.
const (
	UrgencyRoutine = "routine"
	UrgencyUrgent  = "urgent"
	UrgencyStat    = "stat"
)

// AuthorizationRequest maps to the authorization_requests table.
type AuthorizationRequest struct {
	ID                          uuid.UUID  `db:"id" json:"id"`
	PatientID                   uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName                 string     `db:"patient_name" json:"patient_name"`
	PayerID                     *uuid.UUID `db:"payer_id" json:"payer_id,omitempty"`
	PayerName                   *string    `db:"payer_name" json:"payer_name,omitempty"`
	PayerNameCustom             *string    `db:"payer_name_custom" json:"payer_name_custom,omitempty"`
	ServiceType                 string     `db:"service_type" json:"service_type"`
	ProcedureCodes              []string   `db:"procedure_codes" json:"procedure_codes"`
	DiagnosisCodes              []string   `db:"diagnosis_codes" json:"diagnosis_codes"`
	ServiceStartDate            *time.Time `db:"service_start_date" json:"service_start_date,omitempty"`
	ServiceEndDate              *time.Time `db:"service_end_date" json:"service_end_date,omitempty"`
	Status                      string     `db:"status" json:"status"`
	UrgencyLevel                string     `db:"urgency_level" json:"urgency_level"`
	AuthorizationExpirationDate *time.Time `db:"authorization_expiration_date" json:"authorization_expiration_date,omitempty"`
	VisitsAuthorized            int        `db:"visits_authorized" json:"visits_authorized"`
	VisitsUsed                  int        `db:"visits_used" json:"visits_used"`
	UnitsRequested              *int       `db:"units_requested" json:"units_requested,omitempty"`
	FacilityID                  *uuid.UUID `db:"facility_id" json:"facility_id,omitempty"`
	FacilityName                *string    `db:"facility_name" json:"facility_name,omitempty"`
	ExpiredAt                   *time.Time `db:"expired_at" json:"expired_at,omitempty"`
	RenewalInitiated            bool       `db:"renewal_initiated" json:"renewal_initiated"`
	CreatedAt                   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveVisitsAuthorized returns the authorized visit count, falling back
// to units_requested when visits_authorized was never set. Zero means the
// authorization is unlimited.
func (a *AuthorizationRequest) EffectiveVisitsAuthorized() int {
	if a.VisitsAuthorized > 0 {
		return a.VisitsAuthorized
	}
	if a.UnitsRequested != nil && *a.UnitsRequested > 0 {
		return *a.UnitsRequested
	}
	return 0
}

// Unlimited reports whether visit recording is not balance-checked.
func (a *AuthorizationRequest) Unlimited() bool {
	return a.EffectiveVisitsAuthorized() == 0
}

// ExpirationDate returns the effective expiration date, falling back to the
// service end date. The zero time means no expiration is known.
func (a *AuthorizationRequest) ExpirationDate() time.Time {
	if a.AuthorizationExpirationDate != nil {
		return *a.AuthorizationExpirationDate
	}
	if a.ServiceEndDate != nil {
		return *a.ServiceEndDate
	}
	return time.Time{}
}

// VisitUsageEvent maps to the visit_usage_events table. Rows are append-only;
// corrections are recorded as new events.
type VisitUsageEvent struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AuthorizationID uuid.UUID `db:"authorization_id" json:"authorization_id"`
	VisitDate       time.Time `db:"visit_date" json:"visit_date"`
	CPTCodes        []string  `db:"cpt_codes" json:"cpt_codes"`
	Status          string    `db:"status" json:"status"` // completed, scheduled, cancelled
	RecordedBy      string    `db:"recorded_by" json:"recorded_by"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AlertDismissal maps to the alert_dismissals table. Unique per
// (authorization_id, alert_tier) so dismissing one tier never suppresses a
// more urgent tier reached later.
type AlertDismissal struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AuthorizationID uuid.UUID `db:"authorization_id" json:"authorization_id"`
	AlertTier       string    `db:"alert_tier" json:"alert_tier"`
	DismissedBy     string    `db:"dismissed_by" json:"dismissed_by"`
	DismissedAt     time.Time `db:"dismissed_at" json:"dismissed_at"`
}

// View is the normalized read model consumed by every list and detail screen.
type View struct {
	ID               uuid.UUID `json:"id"`
	SerialNo         string    `json:"serial_no"`
	PatientID        uuid.UUID `json:"patient_id"`
	PatientName      string    `json:"patient_name"`
	PayerName        string    `json:"payer_name"`
	FacilityName     string    `json:"facility_name"`
	ServiceType      string    `json:"service_type"`
	ProcedureCodes   []string  `json:"procedure_codes"`
	DiagnosisCodes   []string  `json:"diagnosis_codes"`
	Status           string    `json:"status"`
	DisplayStatus    string    `json:"display_status"`
	UrgencyLevel     string    `json:"urgency_level"`
	ExpirationDate   time.Time `json:"expiration_date,omitempty"`
	VisitsAuthorized int       `json:"visits_authorized"`
	VisitsUsed       int       `json:"visits_used"`
	VisitsRemaining  int       `json:"visits_remaining"`
	Unlimited        bool      `json:"unlimited"`
	RenewalInitiated bool      `json:"renewal_initiated"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Alert is an expiration alert derived per query; never persisted.
type Alert struct {
	AuthorizationID uuid.UUID `json:"authorization_id"`
	PatientName     string    `json:"patient_name"`
	ExpirationDate  time.Time `json:"expiration_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Priority        string    `json:"priority"`
	ActionRequired  string    `json:"action_required"`
	AlertTier       string    `json:"alert_tier"`
}

// Alert priorities, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityUrgent   = "urgent"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
)

// Filter narrows List queries. ExpiringWithin keeps only records whose
// effective expiration date falls inside that many days from now.
type Filter struct {
	Status         string
	PatientID      *uuid.UUID
	PayerID        *uuid.UUID
	ExpiringWithin *int
}
