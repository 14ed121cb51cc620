package authorization

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestPayerNameResolution(t *testing.T) {
	tests := []struct {
		name string
		auth AuthorizationRequest
		want string
	}{
		{"custom wins", AuthorizationRequest{PayerNameCustom: strPtr("Acme Health"), PayerName: strPtr("Joined Payer")}, "Acme Health"},
		{"joined next", AuthorizationRequest{PayerName: strPtr("Joined Payer")}, "Joined Payer"},
		{"empty custom falls through", AuthorizationRequest{PayerNameCustom: strPtr(""), PayerName: strPtr("Joined Payer")}, "Joined Payer"},
		{"unknown last", AuthorizationRequest{}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payerName(&tt.auth); got != tt.want {
				t.Errorf("payerName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFacilityNameResolution(t *testing.T) {
	fid := uuid.New()
	lookup := map[uuid.UUID]string{fid: "Main Street Clinic"}

	tests := []struct {
		name string
		auth AuthorizationRequest
		want string
	}{
		{"explicit name wins", AuthorizationRequest{FacilityName: strPtr("East Wing"), FacilityID: &fid}, "East Wing"},
		{"lookup by id", AuthorizationRequest{FacilityID: &fid}, "Main Street Clinic"},
		{"unresolved id falls back to raw id", AuthorizationRequest{FacilityID: func() *uuid.UUID { u := uuid.New(); return &u }()}, ""},
		{"nothing set", AuthorizationRequest{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := facilityName(&tt.auth, lookup)
			if tt.name == "unresolved id falls back to raw id" {
				if got != tt.auth.FacilityID.String() {
					t.Errorf("facilityName() = %q, want raw id %q", got, tt.auth.FacilityID.String())
				}
				return
			}
			if got != tt.want {
				t.Errorf("facilityName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialNo(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000000")
	if got := serialNo(id, time.Now()); got != "A1B2C3D4" {
		t.Errorf("serialNo() = %q, want A1B2C3D4", got)
	}

	placeholder := serialNo(uuid.Nil, time.Unix(1700000000, 0))
	if len(placeholder) != 8 || placeholder != strings.ToUpper(placeholder) {
		t.Errorf("placeholder serial %q should be 8 upper-case hex chars", placeholder)
	}
}

func TestNormalizeRemaining(t *testing.T) {
	now := date(2026, 3, 15)
	exp := date(2026, 6, 1)
	units := 5

	tests := []struct {
		name          string
		auth          AuthorizationRequest
		wantRemaining int
		wantUnlimited bool
	}{
		{"headroom", AuthorizationRequest{VisitsAuthorized: 10, VisitsUsed: 3}, 7, false},
		{"overused clamps to zero", AuthorizationRequest{VisitsAuthorized: 5, VisitsUsed: 9}, 0, false},
		{"unlimited", AuthorizationRequest{VisitsAuthorized: 0, VisitsUsed: 42}, 0, true},
		{"units_requested fallback", AuthorizationRequest{VisitsAuthorized: 0, UnitsRequested: &units, VisitsUsed: 2}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.auth.ID = uuid.New()
			tt.auth.Status = StatusApproved
			tt.auth.AuthorizationExpirationDate = &exp
			v := Normalize(&tt.auth, nil, now)
			if v.VisitsRemaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", v.VisitsRemaining, tt.wantRemaining)
			}
			if v.Unlimited != tt.wantUnlimited {
				t.Errorf("unlimited = %v, want %v", v.Unlimited, tt.wantUnlimited)
			}
		})
	}
}

func TestDisplayStatus(t *testing.T) {
	now := date(2026, 3, 15)
	past := date(2026, 3, 1)
	future := date(2026, 6, 1)

	tests := []struct {
		name string
		auth AuthorizationRequest
		want string
	}{
		{"approved stays approved", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &future, VisitsAuthorized: 5}, StatusApproved},
		{"past date decays to expired", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &past, VisitsAuthorized: 5}, DisplayExpired},
		{"expired_at stamps expired", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &future, ExpiredAt: &past}, DisplayExpired},
		{"exhausted", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &future, VisitsAuthorized: 3, VisitsUsed: 3}, DisplayExhausted},
		{"expired wins over exhausted", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &past, VisitsAuthorized: 3, VisitsUsed: 3}, DisplayExpired},
		{"denied never decays", AuthorizationRequest{Status: StatusDenied, AuthorizationExpirationDate: &past}, StatusDenied},
		{"pending never decays", AuthorizationRequest{Status: StatusPending, AuthorizationExpirationDate: &past}, StatusPending},
		{"unlimited never exhausts", AuthorizationRequest{Status: StatusApproved, AuthorizationExpirationDate: &future, VisitsAuthorized: 0, VisitsUsed: 99}, StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayStatus(&tt.auth, now); got != tt.want {
				t.Errorf("displayStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFacilityIDs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	items := []*AuthorizationRequest{
		{FacilityID: &a},
		{FacilityID: nil},
		{FacilityID: &a},
		{FacilityID: &b},
	}
	ids := FacilityIDs(items)
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct ids, got %d", len(ids))
	}
	if ids[0] != a || ids[1] != b {
		t.Errorf("ids out of order: %v", ids)
	}
}

func TestNormalizeBatch(t *testing.T) {
	now := date(2026, 3, 15)
	fid := uuid.New()
	items := []*AuthorizationRequest{
		{ID: uuid.New(), Status: StatusDraft, PatientName: "A"},
		{ID: uuid.New(), Status: StatusApproved, PatientName: "B", FacilityID: &fid},
	}
	views := NormalizeBatch(items, map[uuid.UUID]string{fid: "North Clinic"}, now)
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[1].FacilityName != "North Clinic" {
		t.Errorf("facility lookup not applied: %q", views[1].FacilityName)
	}
	if views[0].PayerName != "Unknown" {
		t.Errorf("missing payer should resolve to Unknown, got %q", views[0].PayerName)
	}
}
