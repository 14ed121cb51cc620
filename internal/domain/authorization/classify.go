package authorization

import (
	"fmt"
	"time"
)

// Alert tiers, used as the dismissal dedupe key. A dismissal applies to one
// tier only; when the record later crosses into a more urgent tier, a fresh
// alert fires.
const (
	TierExpired  = "expired"
	TierCritical = "critical"
	TierUrgent   = "urgent"
	TierHigh     = "high"
)

// ExpiringSoonWindow is the widest alerting window, in days.
const ExpiringSoonWindow = 30

// DaysUntilExpiry computes the signed day distance between now and the
// expiration date using calendar-date truncation, so time-of-day and clock
// skew cannot shift the bucket. Negative means already expired.
func DaysUntilExpiry(expiration, now time.Time) int {
	expDay := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(nowDay).Hours() / 24)
}

// Priority maps the day distance to an alert priority, first match wins.
func Priority(daysUntilExpiry int) string {
	switch {
	case daysUntilExpiry <= 7:
		return PriorityCritical
	case daysUntilExpiry <= 14:
		return PriorityUrgent
	case daysUntilExpiry <= 30:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// Classify computes the expiration alert for one authorization at the given
// instant. The second return is false when no alert applies (no expiration
// date on file, or more than 30 days out). Pure given (a, now); now is always
// injected so tests are deterministic.
func Classify(a *AuthorizationRequest, now time.Time) (Alert, bool) {
	exp := a.ExpirationDate()
	if exp.IsZero() {
		return Alert{}, false
	}

	days := DaysUntilExpiry(exp, now)
	expired := days < 0 || a.ExpiredAt != nil

	alert := Alert{
		AuthorizationID: a.ID,
		PatientName:     a.PatientName,
		ExpirationDate:  exp,
		DaysUntilExpiry: days,
	}

	switch {
	case expired:
		alert.Priority = PriorityCritical
		alert.AlertTier = TierExpired
		alert.ActionRequired = "Authorization expired — renew before further visits"
	case days <= ExpiringSoonWindow:
		alert.Priority = Priority(days)
		alert.AlertTier = alert.Priority
		if days == 0 {
			alert.ActionRequired = "Authorization expires today"
		} else {
			alert.ActionRequired = fmt.Sprintf("Authorization expires in %d days", days)
		}
	default:
		return Alert{}, false
	}

	return alert, true
}
