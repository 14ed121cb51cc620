package statement

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("statement not found")
	ErrInvalidTransition = errors.New("invalid statement transition")
)

type Repository interface {
	// Create inserts the statement and its line items together.
	Create(ctx context.Context, s *Statement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Statement, error)
	List(ctx context.Context, status string, patientID *uuid.UUID, limit, offset int) ([]*Statement, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetIssued(ctx context.Context, id uuid.UUID) error
	SetPaid(ctx context.Context, id uuid.UUID) error
}
