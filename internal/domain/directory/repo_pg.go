package directory

import (
	"context"
	"errors"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type payerRepoPG struct{ pool *pgxpool.Pool }

func NewPayerRepoPG(pool *pgxpool.Pool) PayerRepository { return &payerRepoPG{pool: pool} }

func (r *payerRepoPG) Create(ctx context.Context, p *Payer) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO payers (id, name, payer_code, phone, active)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.PayerCode, p.Phone, p.Active)
	return err
}

func (r *payerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payer, error) {
	var p Payer
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, payer_code, phone, active, created_at, updated_at
		  FROM payers WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.PayerCode, &p.Phone, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *payerRepoPG) Update(ctx context.Context, p *Payer) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE payers SET name=$2, payer_code=$3, phone=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.PayerCode, p.Phone, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *payerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM payers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *payerRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Payer, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM payers`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, payer_code, phone, active, created_at, updated_at
		  FROM payers`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Payer
	for rows.Next() {
		var p Payer
		if err := rows.Scan(&p.ID, &p.Name, &p.PayerCode, &p.Phone, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository { return &facilityRepoPG{pool: pool} }

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO facilities (id, name, npi, address, city, state, zip, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		f.ID, f.Name, f.NPI, f.Address, f.City, f.State, f.Zip, f.Active)
	return err
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	var f Facility
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, npi, address, city, state, zip, active, created_at, updated_at
		  FROM facilities WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &f.NPI, &f.Address, &f.City, &f.State, &f.Zip, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facilityRepoPG) Update(ctx context.Context, f *Facility) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE facilities SET name=$2, npi=$3, address=$4, city=$5, state=$6, zip=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Name, f.NPI, f.Address, f.City, f.State, f.Zip, f.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *facilityRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *facilityRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Facility, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM facilities`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, npi, address, city, state, zip, active, created_at, updated_at
		  FROM facilities`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.NPI, &f.Address, &f.City, &f.State, &f.Zip, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &f)
	}
	return items, total, rows.Err()
}

func (r *facilityRepoPG) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM facilities WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		result[id] = name
	}
	return result, rows.Err()
}
