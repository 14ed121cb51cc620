package authorization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NonApprovedWarning is attached to a visit result when the authorization is
// not approved. The visit is recorded anyway; the caller decides whether to
// surface the flag.
const NonApprovedWarning = "authorization is not approved; visit recorded with warning"

// VisitResult is returned by RecordVisit.
type VisitResult struct {
	Event     *VisitUsageEvent `json:"event"`
	Remaining int              `json:"visits_remaining"`
	Unlimited bool             `json:"unlimited"`
	Warning   string           `json:"warning,omitempty"`
}

type Service struct {
	repo       Repository
	facilities FacilityLookup
	tasks      TaskEnqueuer
	now        func() time.Time
	window     int
}

func NewService(repo Repository, facilities FacilityLookup, tasks TaskEnqueuer) *Service {
	return &Service{repo: repo, facilities: facilities, tasks: tasks, now: time.Now, window: ExpiringSoonWindow}
}

// WithAlertWindow overrides how many days ahead the expiring-alert sweep
// looks. Values inside the window still classify on the fixed 7/14/30 tiers.
func (s *Service) WithAlertWindow(days int) *Service {
	if days > 0 {
		s.window = days
	}
	return s
}

// WithClock overrides the clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) validate(a *AuthorizationRequest) error {
	if a.PatientID == uuid.Nil {
		return validationf("patient_id is required")
	}
	if a.PatientName == "" {
		return validationf("patient_name is required")
	}
	if a.ServiceType == "" {
		return validationf("service_type is required")
	}
	if a.UrgencyLevel == "" {
		a.UrgencyLevel = UrgencyRoutine
	}
	if !ValidUrgency(a.UrgencyLevel) {
		return validationf("invalid urgency level: %s", a.UrgencyLevel)
	}
	if a.VisitsAuthorized < 0 {
		return validationf("visits_authorized cannot be negative")
	}
	if a.UnitsRequested != nil && *a.UnitsRequested < 0 {
		return validationf("units_requested cannot be negative")
	}
	if a.ServiceStartDate != nil && a.ServiceEndDate != nil && a.ServiceEndDate.Before(*a.ServiceStartDate) {
		return validationf("service_end_date precedes service_start_date")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *AuthorizationRequest) error {
	if err := s.validate(a); err != nil {
		return err
	}
	a.Status = StatusDraft
	a.VisitsUsed = 0
	a.ExpiredAt = nil
	a.RenewalInitiated = false
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.normalize(ctx, []*AuthorizationRequest{a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]View, int, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, 0, validationf("invalid status filter: %s", filter.Status)
	}
	items, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.normalize(ctx, items)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *Service) normalize(ctx context.Context, items []*AuthorizationRequest) ([]View, error) {
	lookup := map[uuid.UUID]string{}
	if ids := FacilityIDs(items); len(ids) > 0 && s.facilities != nil {
		var err error
		lookup, err = s.facilities.NamesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	return NormalizeBatch(items, lookup, s.now()), nil
}

func (s *Service) Update(ctx context.Context, a *AuthorizationRequest) error {
	if err := s.validate(a); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Submit moves a draft into the payer queue.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*View, error) {
	view, _, err := s.transition(ctx, id, StatusPending)
	return view, err
}

// Decide applies an explicit status update (under_review, approved, denied).
// Approving an already-approved record is a no-op rather than an error, so a
// retried approval never fails; the follow-up task is deduped against open
// tasks by the enqueuer, which still leaves at-least-once creation across a
// narrow race.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, to string) (*View, string, error) {
	if !ValidStatus(to) {
		return nil, "", validationf("invalid status: %s", to)
	}
	return s.transition(ctx, id, to)
}

// transition returns the view after the change plus the prior status.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to string) (*View, string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	from := a.Status

	if !(from == StatusApproved && to == StatusApproved) {
		if !CanTransition(from, to) {
			return nil, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
			return nil, "", err
		}
		a.Status = to

		if s.tasks != nil {
			switch to {
			case StatusApproved:
				_, err = s.tasks.EnqueueForAuthorization(ctx, id, "follow_up",
					PriorityNormal, "Authorization approved: schedule first visit for "+a.PatientName)
			case StatusDenied:
				_, err = s.tasks.EnqueueForAuthorization(ctx, id, "appeal",
					PriorityUrgent, "Authorization denied: file appeal for "+a.PatientName)
			}
			if err != nil {
				return nil, "", err
			}
		}
	}

	views, err := s.normalize(ctx, []*AuthorizationRequest{a})
	if err != nil {
		return nil, "", err
	}
	return &views[0], from, nil
}

// RecordVisit records one visit against the authorization's balance. The
// balance check and increment happen atomically in the repository; this layer
// validates the event and attaches the non-approved warning.
func (s *Service) RecordVisit(ctx context.Context, event *VisitUsageEvent) (*VisitResult, error) {
	if event.AuthorizationID == uuid.Nil {
		return nil, validationf("authorization_id is required")
	}
	if event.VisitDate.IsZero() {
		event.VisitDate = s.now()
	}
	if event.Status == "" {
		event.Status = "completed"
	}
	if !ValidVisitStatus(event.Status) {
		return nil, validationf("invalid visit status: %s", event.Status)
	}

	a, err := s.repo.GetByID(ctx, event.AuthorizationID)
	if err != nil {
		return nil, err
	}

	remaining, unlimited, err := s.repo.RecordVisit(ctx, event)
	if err != nil {
		return nil, err
	}

	result := &VisitResult{Event: event, Remaining: remaining, Unlimited: unlimited}
	if a.Status != StatusApproved {
		result.Warning = NonApprovedWarning
	}
	return result, nil
}

func (s *Service) ListVisits(ctx context.Context, authorizationID uuid.UUID, limit, offset int) ([]*VisitUsageEvent, int, error) {
	if _, err := s.repo.GetByID(ctx, authorizationID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListVisitEvents(ctx, authorizationID, limit, offset)
}

// Renew mints a successor draft from an approved, denied, or expired record
// and flags the original exactly once. The flag and the mint commit together;
// a second renewal attempt returns ErrRenewalInitiated with no new record.
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (*AuthorizationRequest, error) {
	original, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Renewable(original.Status) {
		return nil, fmt.Errorf("%w: cannot renew a %s authorization", ErrInvalidTransition, original.Status)
	}

	successor := &AuthorizationRequest{
		PatientID:        original.PatientID,
		PatientName:      original.PatientName,
		PayerID:          original.PayerID,
		PayerNameCustom:  original.PayerNameCustom,
		ServiceType:      original.ServiceType,
		ProcedureCodes:   original.ProcedureCodes,
		DiagnosisCodes:   original.DiagnosisCodes,
		UrgencyLevel:     original.UrgencyLevel,
		UnitsRequested:   original.UnitsRequested,
		VisitsAuthorized: original.VisitsAuthorized,
		FacilityID:       original.FacilityID,
		FacilityName:     original.FacilityName,
		Status:           StatusDraft,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkRenewalInitiated(ctx, id); err != nil {
			return err
		}
		return s.repo.Create(ctx, successor)
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

// ExpiringAlerts classifies every unrenewned approved record inside the
// alert window and drops alerts whose tier the user already dismissed.
func (s *Service) ExpiringAlerts(ctx context.Context) ([]Alert, error) {
	now := s.now()
	items, err := s.repo.ListExpiringWithin(ctx, now, s.window)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	dismissed, err := s.repo.DismissedTiers(ctx, ids)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(items))
	for _, a := range items {
		alert, ok := Classify(a, now)
		if !ok {
			continue
		}
		if dismissed[a.ID][alert.AlertTier] {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (s *Service) DismissAlert(ctx context.Context, authorizationID uuid.UUID, tier, actor string) error {
	switch tier {
	case TierExpired, TierCritical, TierUrgent, TierHigh:
	default:
		return validationf("invalid alert tier: %s", tier)
	}
	if _, err := s.repo.GetByID(ctx, authorizationID); err != nil {
		return err
	}
	return s.repo.DismissAlert(ctx, &AlertDismissal{
		AuthorizationID: authorizationID,
		AlertTier:       tier,
		DismissedBy:     actor,
	})
}

// MarkExpired is the maintenance sweep behind the admin endpoint: it stamps
// expired_at on approved records past their expiration date. The derived
// display label does not depend on the sweep having run.
func (s *Service) MarkExpired(ctx context.Context) (int, error) {
	return s.repo.MarkExpired(ctx, s.now())
}
