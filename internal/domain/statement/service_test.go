package statement

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Statement
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Statement)}
}

func (m *mockRepo) Create(ctx context.Context, s *Statement) error {
	s.ID = uuid.New()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Statement, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, status string, patientID *uuid.UUID, limit, offset int) ([]*Statement, int, error) {
	var out []*Statement
	for _, s := range m.items {
		if status != "" && s.Status != status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	s, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *mockRepo) SetIssued(ctx context.Context, id uuid.UUID) error {
	return m.UpdateStatus(ctx, id, StatusIssued)
}

func (m *mockRepo) SetPaid(ctx context.Context, id uuid.UUID) error {
	return m.UpdateStatus(ctx, id, StatusPaid)
}

type mockPricer struct {
	prices map[string]float64
}

func (m *mockPricer) Price(ctx context.Context, scheduleID uuid.UUID, code string) (float64, error) {
	amount, ok := m.prices[code]
	if !ok {
		return 0, ErrNotFound
	}
	return amount, nil
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCreateComputesTotals(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockPricer{prices: map[string]float64{"97110": 36, "97140": 35}})
	ctx := context.Background()
	scheduleID := uuid.New()

	st := &Statement{
		PatientID:     uuid.New(),
		PatientName:   "Jordan Reyes",
		FeeScheduleID: &scheduleID,
		Total:         9999, // caller-supplied totals are ignored
		LineItems: []LineItem{
			{ProcedureCode: "97110", Quantity: 3},
			{ProcedureCode: "97140"},                             // quantity defaults to 1
			{ProcedureCode: "97530", Quantity: 2, UnitAmount: 40}, // explicit price wins
		},
	}
	if err := svc.Create(ctx, st); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if st.Status != StatusDraft {
		t.Errorf("status = %s, want draft", st.Status)
	}
	// 3*36 + 1*35 + 2*40 = 108 + 35 + 80 = 223.
	if !approx(st.Total, 223) {
		t.Errorf("total = %v, want 223", st.Total)
	}
	if !approx(st.LineItems[0].Amount, 108) {
		t.Errorf("line 1 amount = %v, want 108", st.LineItems[0].Amount)
	}
	if st.LineItems[1].Quantity != 1 {
		t.Errorf("line 2 quantity = %d, want 1", st.LineItems[1].Quantity)
	}
	if !approx(st.LineItems[2].UnitAmount, 40) {
		t.Errorf("line 3 unit = %v, explicit price should win", st.LineItems[2].UnitAmount)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo(), &mockPricer{prices: map[string]float64{}})
	ctx := context.Background()
	scheduleID := uuid.New()

	tests := []struct {
		name string
		st   Statement
	}{
		{"missing patient", Statement{PatientName: "X", LineItems: []LineItem{{ProcedureCode: "97110", UnitAmount: 1}}}},
		{"missing name", Statement{PatientID: uuid.New(), LineItems: []LineItem{{ProcedureCode: "97110", UnitAmount: 1}}}},
		{"no lines", Statement{PatientID: uuid.New(), PatientName: "X"}},
		{"line missing code", Statement{PatientID: uuid.New(), PatientName: "X", LineItems: []LineItem{{UnitAmount: 1}}}},
		{"unpriced line without schedule", Statement{PatientID: uuid.New(), PatientName: "X", LineItems: []LineItem{{ProcedureCode: "97110"}}}},
		{"unknown code on schedule", Statement{PatientID: uuid.New(), PatientName: "X", FeeScheduleID: &scheduleID, LineItems: []LineItem{{ProcedureCode: "97110"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.st
			if err := svc.Create(ctx, &st); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTransitions(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockPricer{})
	ctx := context.Background()

	st := &Statement{PatientID: uuid.New(), PatientName: "X", Status: StatusDraft}
	if err := repo.Create(ctx, st); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, to := range []string{StatusIssued, StatusSent, StatusPaid} {
		got, err := svc.Transition(ctx, st.ID, to)
		if err != nil {
			t.Fatalf("Transition to %s: %v", to, err)
		}
		if got.Status != to {
			t.Errorf("status = %s, want %s", got.Status, to)
		}
	}

	// Paid is terminal.
	if _, err := svc.Transition(ctx, st.ID, StatusVoid); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("void after paid error = %v, want ErrInvalidTransition", err)
	}
}

func TestVoidFromEveryOpenState(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockPricer{})
	ctx := context.Background()

	for _, from := range []string{StatusDraft, StatusIssued, StatusSent} {
		st := &Statement{PatientID: uuid.New(), PatientName: "X", Status: from}
		if err := repo.Create(ctx, st); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := svc.Transition(ctx, st.ID, StatusVoid); err != nil {
			t.Errorf("void from %s: %v", from, err)
		}
	}
}
