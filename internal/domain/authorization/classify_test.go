package authorization

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntilExpiry(t *testing.T) {
	tests := []struct {
		name       string
		expiration time.Time
		now        time.Time
		want       int
	}{
		{"same day", date(2026, 3, 15), date(2026, 3, 15), 0},
		{"tomorrow", date(2026, 3, 16), date(2026, 3, 15), 1},
		{"yesterday", date(2026, 3, 14), date(2026, 3, 15), -1},
		{"thirty days", date(2026, 4, 14), date(2026, 3, 15), 30},
		{"time of day ignored", time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC), 1},
		{"expires later today still zero", time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntilExpiry(tt.expiration, tt.now); got != tt.want {
				t.Errorf("DaysUntilExpiry() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-1, PriorityCritical},
		{0, PriorityCritical},
		{7, PriorityCritical},
		{8, PriorityUrgent},
		{14, PriorityUrgent},
		{15, PriorityHigh},
		{30, PriorityHigh},
		{31, PriorityNormal},
	}
	for _, tt := range tests {
		if got := Priority(tt.days); got != tt.want {
			t.Errorf("Priority(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	now := date(2026, 3, 15)
	exp := func(d time.Time) *time.Time { return &d }

	tests := []struct {
		name     string
		auth     AuthorizationRequest
		wantOK   bool
		wantTier string
		wantPrio string
	}{
		{
			name:   "no expiration date",
			auth:   AuthorizationRequest{Status: StatusApproved},
			wantOK: false,
		},
		{
			name:     "past expiry",
			auth:     AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 3, 10))},
			wantOK:   true,
			wantTier: TierExpired,
			wantPrio: PriorityCritical,
		},
		{
			name: "expired_at set even with future date",
			auth: AuthorizationRequest{
				Status:                      StatusApproved,
				AuthorizationExpirationDate: exp(date(2026, 4, 1)),
				ExpiredAt:                   exp(date(2026, 3, 1)),
			},
			wantOK:   true,
			wantTier: TierExpired,
			wantPrio: PriorityCritical,
		},
		{
			name:     "expires today",
			auth:     AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 3, 15))},
			wantOK:   true,
			wantTier: TierCritical,
			wantPrio: PriorityCritical,
		},
		{
			name:     "seven days critical",
			auth:     AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 3, 22))},
			wantOK:   true,
			wantTier: TierCritical,
			wantPrio: PriorityCritical,
		},
		{
			name:     "eight days urgent",
			auth:     AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 3, 23))},
			wantOK:   true,
			wantTier: TierUrgent,
			wantPrio: PriorityUrgent,
		},
		{
			name:     "thirty days high",
			auth:     AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 4, 14))},
			wantOK:   true,
			wantTier: TierHigh,
			wantPrio: PriorityHigh,
		},
		{
			name:   "thirty-one days no alert",
			auth:   AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: exp(date(2026, 4, 15))},
			wantOK: false,
		},
		{
			name:     "falls back to service end date",
			auth:     AuthorizationRequest{Status: StatusApproved, ServiceEndDate: exp(date(2026, 3, 20))},
			wantOK:   true,
			wantTier: TierCritical,
			wantPrio: PriorityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.auth.ID = uuid.New()
			alert, ok := Classify(&tt.auth, now)
			if ok != tt.wantOK {
				t.Fatalf("Classify() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if alert.AlertTier != tt.wantTier {
				t.Errorf("tier = %s, want %s", alert.AlertTier, tt.wantTier)
			}
			if alert.Priority != tt.wantPrio {
				t.Errorf("priority = %s, want %s", alert.Priority, tt.wantPrio)
			}
			if alert.AuthorizationID != tt.auth.ID {
				t.Errorf("authorization id not carried into alert")
			}
			if alert.ActionRequired == "" {
				t.Errorf("expected non-empty action")
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	exp := date(2026, 3, 20)
	a := &AuthorizationRequest{ID: uuid.New(), Status: StatusApproved, AuthorizationExpirationDate: &exp}

	first, _ := Classify(a, date(2026, 3, 15))
	second, _ := Classify(a, date(2026, 3, 15))
	if first != second {
		t.Error("same inputs produced different alerts")
	}

	later, ok := Classify(a, date(2026, 3, 21))
	if !ok || later.AlertTier != TierExpired {
		t.Errorf("after the date the alert should be expired, got %+v ok=%v", later, ok)
	}
}
