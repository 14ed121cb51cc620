package feeschedule

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
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) *repoPG { return &repoPG{pool: pool} }

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

const scheduleCols = `id, name, payer_id, method, percent_adjust, round_up, status, effective_date, created_at, updated_at`

func scanSchedule(row pgx.Row) (*FeeSchedule, error) {
	var fs FeeSchedule
	err := row.Scan(&fs.ID, &fs.Name, &fs.PayerID, &fs.Method, &fs.PercentAdjust, &fs.RoundUp,
		&fs.Status, &fs.EffectiveDate, &fs.CreatedAt, &fs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &fs, err
}

func (r *repoPG) Create(ctx context.Context, fs *FeeSchedule) error {
	fs.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO fee_schedules (id, name, payer_id, method, percent_adjust, round_up, status, effective_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		fs.ID, fs.Name, fs.PayerID, fs.Method, fs.PercentAdjust, fs.RoundUp, fs.Status, fs.EffectiveDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*FeeSchedule, error) {
	return scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM fee_schedules WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, fs *FeeSchedule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE fee_schedules SET name=$2, payer_id=$3, status=$4, effective_date=$5, updated_at=NOW()
		WHERE id = $1`,
		fs.ID, fs.Name, fs.PayerID, fs.Status, fs.EffectiveDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM fee_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*FeeSchedule, int, error) {
	where := ""
	args := []interface{}{}
	n := 0
	if status != "" {
		n++
		where = fmt.Sprintf(" WHERE status = $%d", n)
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM fee_schedules`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + scheduleCols + ` FROM fee_schedules` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*FeeSchedule
	for rows.Next() {
		fs, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, fs)
	}
	return items, total, rows.Err()
}

func (r *repoPG) BulkInsertEntries(ctx context.Context, scheduleID uuid.UUID, entries []Entry) error {
	batch := &pgx.Batch{}
	for i := range entries {
		entries[i].ID = uuid.New()
		entries[i].ScheduleID = scheduleID
		batch.Queue(`
			INSERT INTO fee_schedule_entries (id, schedule_id, procedure_code, description, amount)
			VALUES ($1,$2,$3,$4,$5)`,
			entries[i].ID, scheduleID, entries[i].ProcedureCode, entries[i].Description, entries[i].Amount)
	}

	results := r.conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListEntries(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM fee_schedule_entries WHERE schedule_id = $1`, scheduleID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, schedule_id, procedure_code, description, amount
		  FROM fee_schedule_entries
		 WHERE schedule_id = $1
		 ORDER BY procedure_code LIMIT $2 OFFSET $3`, scheduleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ScheduleID, &e.ProcedureCode, &e.Description, &e.Amount); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) LookupAmount(ctx context.Context, scheduleID uuid.UUID, procedureCode string) (float64, error) {
	var amount float64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT amount FROM fee_schedule_entries
		 WHERE schedule_id = $1 AND procedure_code = $2`, scheduleID, procedureCode).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return amount, err
}

// MedicareRates reads the medicare_rates reference table.
func (r *repoPG) MedicareRates(ctx context.Context, codes []string) (map[string]float64, error) {
	query := `SELECT procedure_code, rate FROM medicare_rates`
	args := []interface{}{}
	if len(codes) > 0 {
		query += ` WHERE procedure_code = ANY($1)`
		args = append(args, codes)
	}
	return r.rateMap(ctx, query, args...)
}

// AverageCharges averages billed line-item charges per code.
func (r *repoPG) AverageCharges(ctx context.Context, codes []string) (map[string]float64, error) {
	query := `SELECT procedure_code, AVG(amount) FROM statement_line_items GROUP BY procedure_code`
	args := []interface{}{}
	if len(codes) > 0 {
		query = `SELECT procedure_code, AVG(amount) FROM statement_line_items
			WHERE procedure_code = ANY($1) GROUP BY procedure_code`
		args = append(args, codes)
	}
	return r.rateMap(ctx, query, args...)
}

func (r *repoPG) rateMap(ctx context.Context, query string, args ...interface{}) (map[string]float64, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var code string
		var amount float64
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, err
		}
		rates[code] = amount
	}
	return rates, rows.Err()
}
