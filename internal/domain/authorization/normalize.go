package authorization

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Normalize converts a raw authorization row plus a facility-id→name lookup
// into the stable view model used downstream. Pure function of its inputs;
// the lookup map is built once per batch to avoid N+1 facility fetches.
func Normalize(a *AuthorizationRequest, facilities map[uuid.UUID]string, now time.Time) View {
	authorized := a.EffectiveVisitsAuthorized()

	remaining := 0
	if authorized > a.VisitsUsed {
		remaining = authorized - a.VisitsUsed
	}

	v := View{
		ID:               a.ID,
		SerialNo:         serialNo(a.ID, now),
		PatientID:        a.PatientID,
		PatientName:      a.PatientName,
		PayerName:        payerName(a),
		FacilityName:     facilityName(a, facilities),
		ServiceType:      a.ServiceType,
		ProcedureCodes:   a.ProcedureCodes,
		DiagnosisCodes:   a.DiagnosisCodes,
		Status:           a.Status,
		DisplayStatus:    displayStatus(a, now),
		UrgencyLevel:     a.UrgencyLevel,
		ExpirationDate:   a.ExpirationDate(),
		VisitsAuthorized: authorized,
		VisitsUsed:       a.VisitsUsed,
		VisitsRemaining:  remaining,
		Unlimited:        authorized == 0,
		RenewalInitiated: a.RenewalInitiated,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	return v
}

// NormalizeBatch normalizes a page of rows against one facility lookup.
func NormalizeBatch(items []*AuthorizationRequest, facilities map[uuid.UUID]string, now time.Time) []View {
	views := make([]View, 0, len(items))
	for _, a := range items {
		views = append(views, Normalize(a, facilities, now))
	}
	return views
}

// FacilityIDs collects the distinct non-nil facility ids from a batch, for a
// single lookup call.
func FacilityIDs(items []*AuthorizationRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, a := range items {
		if a.FacilityID == nil || seen[*a.FacilityID] {
			continue
		}
		seen[*a.FacilityID] = true
		ids = append(ids, *a.FacilityID)
	}
	return ids
}

// payerName resolves the display payer: the custom free-text name wins, then
// the joined payer name, then "Unknown".
func payerName(a *AuthorizationRequest) string {
	if a.PayerNameCustom != nil && *a.PayerNameCustom != "" {
		return *a.PayerNameCustom
	}
	if a.PayerName != nil && *a.PayerName != "" {
		return *a.PayerName
	}
	return "Unknown"
}

// facilityName resolves the display facility: the explicit name field, then
// the lookup by id, then the raw id, then empty.
func facilityName(a *AuthorizationRequest, facilities map[uuid.UUID]string) string {
	if a.FacilityName != nil && *a.FacilityName != "" {
		return *a.FacilityName
	}
	if a.FacilityID != nil {
		if name, ok := facilities[*a.FacilityID]; ok && name != "" {
			return name
		}
		return a.FacilityID.String()
	}
	return ""
}

// serialNo is the short human-facing reference: the first 8 characters of the
// id, upper-cased. Records not yet persisted get a timestamp-derived
// placeholder.
func serialNo(id uuid.UUID, now time.Time) string {
	if id == uuid.Nil {
		return fmt.Sprintf("%08X", now.Unix()&0xFFFFFFFF)
	}
	return strings.ToUpper(id.String()[:8])
}

// displayStatus overlays the derived labels on the stored status. Only
// approved records decay to expired or exhausted; denial stays denial.
func displayStatus(a *AuthorizationRequest, now time.Time) string {
	if a.Status != StatusApproved {
		return a.Status
	}
	if a.ExpiredAt != nil {
		return DisplayExpired
	}
	if exp := a.ExpirationDate(); !exp.IsZero() && DaysUntilExpiry(exp, now) < 0 {
		return DisplayExpired
	}
	if !a.Unlimited() && a.VisitsUsed >= a.EffectiveVisitsAuthorized() {
		return DisplayExhausted
	}
	return StatusApproved
}
