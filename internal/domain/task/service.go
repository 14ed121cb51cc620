package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, t *Task) error {
	if t.Code == "" {
		return fmt.Errorf("code is required")
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid task status: %s", t.Status)
	}
	if t.Priority == "" {
		t.Priority = "normal"
	}
	return s.repo.Create(ctx, t)
}

// EnqueueForAuthorization satisfies the authorization package's enqueuer.
// At-least-once: a concurrent enqueue racing past the open-task check can
// still produce a duplicate, which the conditional insert makes rare and a
// human closes cheaply.
func (s *Service) EnqueueForAuthorization(ctx context.Context, authorizationID uuid.UUID, code, priority, description string) (bool, error) {
	t := &Task{
		AuthorizationID: &authorizationID,
		Code:            code,
		Priority:        priority,
		Status:          StatusOpen,
		Description:     description,
	}
	return s.repo.CreateUnlessOpen(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *Task) error {
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid task status: %s", t.Status)
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Task, int, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, 0, fmt.Errorf("invalid task status: %s", filter.Status)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Complete marks a task done. Completing a done task is a no-op.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusDone {
		return t, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusDone); err != nil {
		return nil, err
	}
	t.Status = StatusDone
	now := time.Now()
	t.CompletedAt = &now
	return t, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
