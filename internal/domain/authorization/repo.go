package authorization

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists authorization requests and their owned rows. All
// methods are company-scoped by the schema pinned to the context connection.
type Repository interface {
	Create(ctx context.Context, a *AuthorizationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*AuthorizationRequest, error)
	Update(ctx context.Context, a *AuthorizationRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*AuthorizationRequest, int, error)

	// UpdateStatus writes the stored status and bumps updated_at.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// RecordVisit appends the event and increments visits_used as one atomic
	// conditional update: the increment only lands while the record is
	// unexpired and has headroom (or is unlimited), so two concurrent
	// recordings can never both consume the last visit. Returns the updated
	// remaining count (0 for unlimited records). Failures map to ErrNotFound,
	// ErrExpired, or ErrVisitsExhausted.
	RecordVisit(ctx context.Context, event *VisitUsageEvent) (remaining int, unlimited bool, err error)

	// MarkRenewalInitiated sets renewal_initiated exactly once; a second call
	// for the same id returns ErrRenewalInitiated.
	MarkRenewalInitiated(ctx context.Context, id uuid.UUID) error

	// MarkExpired stamps expired_at on approved records whose expiration date
	// has passed and that have no successor renewal. Idempotent; returns the
	// number of rows stamped.
	MarkExpired(ctx context.Context, now time.Time) (int, error)

	// ListExpiringWithin returns unrenewned approved records expiring within
	// the window, plus those already past expiry.
	ListExpiringWithin(ctx context.Context, now time.Time, days int) ([]*AuthorizationRequest, error)

	ListVisitEvents(ctx context.Context, authorizationID uuid.UUID, limit, offset int) ([]*VisitUsageEvent, int, error)

	// DismissAlert records a dismissal; repeat dismissals of the same tier
	// are no-ops.
	DismissAlert(ctx context.Context, d *AlertDismissal) error

	// DismissedTiers returns, for each authorization id, the set of dismissed
	// alert tiers.
	DismissedTiers(ctx context.Context, authorizationIDs []uuid.UUID) (map[uuid.UUID]map[string]bool, error)

	// InTx runs fn with all repository calls inside one transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FacilityLookup resolves facility display names in one batch call. Satisfied
// by the directory service.
type FacilityLookup interface {
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// TaskEnqueuer enqueues follow-up work for an authorization. Satisfied by the
// task service. The boolean reports whether a task was actually created
// (false when an open task with the same code already existed).
type TaskEnqueuer interface {
	EnqueueForAuthorization(ctx context.Context, authorizationID uuid.UUID, code, priority, description string) (bool, error)
}
