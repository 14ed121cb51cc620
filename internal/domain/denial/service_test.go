package denial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	denials map[uuid.UUID]*Denial
	appeals map[uuid.UUID]*Appeal
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		denials: make(map[uuid.UUID]*Denial),
		appeals: make(map[uuid.UUID]*Appeal),
	}
}

func (m *mockRepo) Create(ctx context.Context, d *Denial) error {
	d.ID = uuid.New()
	cp := *d
	m.denials[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Denial, error) {
	d, ok := m.denials[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]*Denial, int, error) {
	var out []*Denial
	for _, d := range m.denials {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	d, ok := m.denials[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	return nil
}

func (m *mockRepo) CreateAppeal(ctx context.Context, a *Appeal) error {
	a.ID = uuid.New()
	cp := *a
	m.appeals[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetAppeal(ctx context.Context, id uuid.UUID) (*Appeal, error) {
	a, ok := m.appeals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListAppealsByDenial(ctx context.Context, denialID uuid.UUID) ([]*Appeal, error) {
	var out []*Appeal
	for _, a := range m.appeals {
		if a.DenialID == denialID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateAppeal(ctx context.Context, a *Appeal) error {
	if _, ok := m.appeals[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.appeals[a.ID] = &cp
	return nil
}

func (m *mockRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func seedDenial(t *testing.T, repo *mockRepo) *Denial {
	t.Helper()
	d := &Denial{ReasonCode: "CO-197", DeniedAmount: 450, Status: StatusDenied, DeniedDate: time.Now()}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("seed denial: %v", err)
	}
	return d
}

func TestSubmitAppealFlipsDenial(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d := seedDenial(t, repo)
	a := &Appeal{DenialID: d.ID}
	if err := svc.CreateAppeal(ctx, a); err != nil {
		t.Fatalf("CreateAppeal: %v", err)
	}
	if a.Status != AppealDraft {
		t.Errorf("new appeal status = %s, want draft", a.Status)
	}

	submitted, err := svc.SubmitAppeal(ctx, a.ID)
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if submitted.Status != AppealSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("submitted appeal = %+v", submitted)
	}

	got, _ := repo.GetByID(ctx, d.ID)
	if got.Status != StatusAppealed {
		t.Errorf("denial status = %s, want appealed", got.Status)
	}

	// Only drafts submit.
	if _, err := svc.SubmitAppeal(ctx, a.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("repeat submit error = %v, want ErrInvalidState", err)
	}
}

func TestResolveAppeal(t *testing.T) {
	tests := []struct {
		outcome    string
		wantDenial string
	}{
		{AppealWon, StatusOverturned},
		{AppealLost, StatusUpheld},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			repo := newMockRepo()
			svc := NewService(repo)
			ctx := context.Background()

			d := seedDenial(t, repo)
			a := &Appeal{DenialID: d.ID}
			if err := svc.CreateAppeal(ctx, a); err != nil {
				t.Fatalf("CreateAppeal: %v", err)
			}
			if _, err := svc.SubmitAppeal(ctx, a.ID); err != nil {
				t.Fatalf("SubmitAppeal: %v", err)
			}

			resolved, err := svc.ResolveAppeal(ctx, a.ID, tt.outcome)
			if err != nil {
				t.Fatalf("ResolveAppeal: %v", err)
			}
			if resolved.Status != tt.outcome || resolved.ResolvedAt == nil {
				t.Errorf("resolved appeal = %+v", resolved)
			}

			got, _ := repo.GetByID(ctx, d.ID)
			if got.Status != tt.wantDenial {
				t.Errorf("denial status = %s, want %s", got.Status, tt.wantDenial)
			}
		})
	}
}

func TestResolveAppealGuards(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d := seedDenial(t, repo)
	a := &Appeal{DenialID: d.ID}
	if err := svc.CreateAppeal(ctx, a); err != nil {
		t.Fatalf("CreateAppeal: %v", err)
	}

	// Draft appeals cannot be resolved.
	if _, err := svc.ResolveAppeal(ctx, a.ID, AppealWon); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resolve draft error = %v, want ErrInvalidState", err)
	}

	if _, err := svc.ResolveAppeal(ctx, a.ID, "settled"); err == nil {
		t.Error("unknown outcome should fail")
	}
}

func TestCreateAppealOnResolvedDenial(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d := seedDenial(t, repo)
	repo.denials[d.ID].Status = StatusOverturned

	if err := svc.CreateAppeal(ctx, &Appeal{DenialID: d.ID}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("appeal on resolved denial error = %v, want ErrInvalidState", err)
	}
}

func TestCreateDenialValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Denial{DeniedAmount: 100}); err == nil {
		t.Error("missing reason_code should fail")
	}
	if err := svc.Create(ctx, &Denial{ReasonCode: "CO-197", DeniedAmount: -1}); err == nil {
		t.Error("negative amount should fail")
	}

	d := &Denial{ReasonCode: "CO-197", DeniedAmount: 100}
	if err := svc.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Status != StatusDenied {
		t.Errorf("status = %s, want denied", d.Status)
	}
	if d.DeniedDate.IsZero() {
		t.Error("denied_date should default to now")
	}
}
