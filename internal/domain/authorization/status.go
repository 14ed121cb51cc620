package authorization

// allowedTransitions is the explicit status machine. "expired" is derived and
// never a target; renewal is a separate operation that mints a new record.
var allowedTransitions = map[string][]string{
	StatusDraft:       {StatusPending},
	StatusPending:     {StatusUnderReview, StatusApproved, StatusDenied},
	StatusUnderReview: {StatusApproved, StatusDenied},
}

// ValidStatus reports whether s is a storable status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPending, StatusUnderReview, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// CanTransition reports whether the status machine allows from→to.
func CanTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Renewable reports whether a record may be renewed/resubmitted: terminal
// approved or denied records, including approved records that have decayed to
// the derived expired label. Draft and in-flight records cannot be renewed.
func Renewable(status string) bool {
	return status == StatusApproved || status == StatusDenied
}

var validUrgencies = map[string]bool{
	UrgencyRoutine: true, UrgencyUrgent: true, UrgencyStat: true,
}

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	return validUrgencies[u]
}

var validVisitStatuses = map[string]bool{
	"completed": true, "scheduled": true, "cancelled": true,
}

// ValidVisitStatus reports whether s is a known visit event status.
func ValidVisitStatus(s string) bool {
	return validVisitStatuses[s]
}
