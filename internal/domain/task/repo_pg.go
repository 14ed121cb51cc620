package task

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

const taskCols = `id, authorization_id, code, priority, status, description,
	assignee_id, due_date, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.AuthorizationID, &t.Code, &t.Priority, &t.Status, &t.Description,
		&t.AssigneeID, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Task) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tasks (id, authorization_id, code, priority, status, description, assignee_id, due_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.AuthorizationID, t.Code, t.Priority, t.Status, t.Description, t.AssigneeID, t.DueDate)
	return err
}

func (r *repoPG) CreateUnlessOpen(ctx context.Context, t *Task) (bool, error) {
	t.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tasks (id, authorization_id, code, priority, status, description, assignee_id, due_date)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8
		 WHERE NOT EXISTS (
			SELECT 1 FROM tasks
			 WHERE authorization_id = $2 AND code = $3 AND status IN ('open','in_progress'))`,
		t.ID, t.AuthorizationID, t.Code, t.Priority, t.Status, t.Description, t.AssigneeID, t.DueDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return scanTask(r.conn(ctx).QueryRow(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Task) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tasks SET priority=$2, status=$3, description=$4, assignee_id=$5, due_date=$6,
			completed_at=$7, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Priority, t.Status, t.Description, t.AssigneeID, t.DueDate, t.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	completed := "NULL"
	if status == StatusDone {
		completed = "NOW()"
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE tasks SET status=$2, completed_at=`+completed+`, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter Filter, limit, offset int) ([]*Task, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if filter.Status != "" {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, filter.Status)
	}
	if filter.Code != "" {
		n++
		where += fmt.Sprintf(" AND code = $%d", n)
		args = append(args, filter.Code)
	}
	if filter.AssigneeID != nil {
		n++
		where += fmt.Sprintf(" AND assignee_id = $%d", n)
		args = append(args, *filter.AssigneeID)
	}
	if filter.AuthorizationID != nil {
		n++
		where += fmt.Sprintf(" AND authorization_id = $%d", n)
		args = append(args, *filter.AuthorizationID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskCols + ` FROM tasks` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
