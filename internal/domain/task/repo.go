package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("task not found")

type Filter struct {
	Status          string
	Code            string
	AssigneeID      *string
	AuthorizationID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Task, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// CreateUnlessOpen inserts the task only when no open or in_progress task
	// with the same (authorization_id, code) exists. Returns whether a row was
	// inserted. The check and the insert are one statement so concurrent
	// enqueues collapse to at most a handful of duplicates, never a flood.
	CreateUnlessOpen(ctx context.Context, t *Task) (bool, error)
}
