package denial

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("denial record not found")
	ErrInvalidState = errors.New("invalid denial state for this operation")
)

type Filter struct {
	Status          string
	PayerID         *uuid.UUID
	AuthorizationID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, d *Denial) error
	GetByID(ctx context.Context, id uuid.UUID) (*Denial, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Denial, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateAppeal(ctx context.Context, a *Appeal) error
	GetAppeal(ctx context.Context, id uuid.UUID) (*Appeal, error)
	ListAppealsByDenial(ctx context.Context, denialID uuid.UUID) ([]*Appeal, error)
	UpdateAppeal(ctx context.Context, a *Appeal) error

	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
