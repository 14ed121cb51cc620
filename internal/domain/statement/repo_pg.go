package statement

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

const stmtCols = `id, patient_id, patient_name, payer_id, fee_schedule_id, status, total,
	issued_at, paid_at, created_at, updated_at`

func scanStatement(row pgx.Row) (*Statement, error) {
	var s Statement
	err := row.Scan(&s.ID, &s.PatientID, &s.PatientName, &s.PayerID, &s.FeeScheduleID, &s.Status, &s.Total,
		&s.IssuedAt, &s.PaidAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Statement) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		s.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO statements (id, patient_id, patient_name, payer_id, fee_schedule_id, status, total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.PatientID, s.PatientName, s.PayerID, s.FeeScheduleID, s.Status, s.Total)
		if err != nil {
			return err
		}
		for i := range s.LineItems {
			s.LineItems[i].ID = uuid.New()
			s.LineItems[i].StatementID = s.ID
			li := s.LineItems[i]
			_, err := r.conn(ctx).Exec(ctx, `
				INSERT INTO statement_line_items (id, statement_id, procedure_code, description, quantity, unit_amount, amount)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				li.ID, li.StatementID, li.ProcedureCode, li.Description, li.Quantity, li.UnitAmount, li.Amount)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Statement, error) {
	s, err := scanStatement(r.conn(ctx).QueryRow(ctx, `SELECT `+stmtCols+` FROM statements WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, statement_id, procedure_code, description, quantity, unit_amount, amount
		  FROM statement_line_items WHERE statement_id = $1 ORDER BY procedure_code`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.StatementID, &li.ProcedureCode, &li.Description,
			&li.Quantity, &li.UnitAmount, &li.Amount); err != nil {
			return nil, err
		}
		s.LineItems = append(s.LineItems, li)
	}
	return s, rows.Err()
}

func (r *repoPG) List(ctx context.Context, status string, patientID *uuid.UUID, limit, offset int) ([]*Statement, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if status != "" {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, status)
	}
	if patientID != nil {
		n++
		where += fmt.Sprintf(" AND patient_id = $%d", n)
		args = append(args, *patientID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM statements`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + stmtCols + ` FROM statements` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Statement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE statements SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetIssued(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE statements SET status=$2, issued_at=NOW(), updated_at=NOW() WHERE id = $1`, id, StatusIssued)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE statements SET status=$2, paid_at=NOW(), updated_at=NOW() WHERE id = $1`, id, StatusPaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
