package denial

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcm/rcm/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, r.pool, fn)
}

const denialCols = `id, authorization_id, claim_number, payer_id, reason_code, reason_description,
	denied_amount, status, denied_date, created_at, updated_at`

func scanDenial(row pgx.Row) (*Denial, error) {
	var d Denial
	err := row.Scan(&d.ID, &d.AuthorizationID, &d.ClaimNumber, &d.PayerID, &d.ReasonCode, &d.ReasonDescription,
		&d.DeniedAmount, &d.Status, &d.DeniedDate, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Denial) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO denials (id, authorization_id, claim_number, payer_id, reason_code, reason_description,
			denied_amount, status, denied_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.AuthorizationID, d.ClaimNumber, d.PayerID, d.ReasonCode, d.ReasonDescription,
		d.DeniedAmount, d.Status, d.DeniedDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Denial, error) {
	return scanDenial(r.conn(ctx).QueryRow(ctx, `SELECT `+denialCols+` FROM denials WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, filter Filter, limit, offset int) ([]*Denial, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if filter.Status != "" {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, filter.Status)
	}
	if filter.PayerID != nil {
		n++
		where += fmt.Sprintf(" AND payer_id = $%d", n)
		args = append(args, *filter.PayerID)
	}
	if filter.AuthorizationID != nil {
		n++
		where += fmt.Sprintf(" AND authorization_id = $%d", n)
		args = append(args, *filter.AuthorizationID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM denials`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + denialCols + ` FROM denials` + where +
		fmt.Sprintf(" ORDER BY denied_date DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Denial
	for rows.Next() {
		d, err := scanDenial(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE denials SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const appealCols = `id, denial_id, status, deadline, notes, submitted_at, resolved_at, created_at, updated_at`

func scanAppeal(row pgx.Row) (*Appeal, error) {
	var a Appeal
	err := row.Scan(&a.ID, &a.DenialID, &a.Status, &a.Deadline, &a.Notes,
		&a.SubmittedAt, &a.ResolvedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) CreateAppeal(ctx context.Context, a *Appeal) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appeals (id, denial_id, status, deadline, notes)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.DenialID, a.Status, a.Deadline, a.Notes)
	return err
}

func (r *repoPG) GetAppeal(ctx context.Context, id uuid.UUID) (*Appeal, error) {
	return scanAppeal(r.conn(ctx).QueryRow(ctx, `SELECT `+appealCols+` FROM appeals WHERE id = $1`, id))
}

func (r *repoPG) ListAppealsByDenial(ctx context.Context, denialID uuid.UUID) ([]*Appeal, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appealCols+` FROM appeals WHERE denial_id = $1 ORDER BY created_at DESC`, denialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateAppeal(ctx context.Context, a *Appeal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appeals SET status=$2, deadline=$3, notes=$4, submitted_at=$5, resolved_at=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.Deadline, a.Notes, a.SubmittedAt, a.ResolvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
