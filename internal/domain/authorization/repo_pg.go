package authorization

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const authCols = `a.id, a.patient_id, a.patient_name, a.payer_id, p.name, a.payer_name_custom,
	a.service_type, a.procedure_codes, a.diagnosis_codes,
	a.service_start_date, a.service_end_date, a.status, a.urgency_level,
	a.authorization_expiration_date, a.visits_authorized, a.visits_used, a.units_requested,
	a.facility_id, a.facility_name, a.expired_at, a.renewal_initiated,
	a.created_at, a.updated_at`

const authFrom = ` FROM authorization_requests a LEFT JOIN payers p ON p.id = a.payer_id`

func (r *repoPG) scan(row pgx.Row) (*AuthorizationRequest, error) {
	var a AuthorizationRequest
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PayerID, &a.PayerName, &a.PayerNameCustom,
		&a.ServiceType, &a.ProcedureCodes, &a.DiagnosisCodes,
		&a.ServiceStartDate, &a.ServiceEndDate, &a.Status, &a.UrgencyLevel,
		&a.AuthorizationExpirationDate, &a.VisitsAuthorized, &a.VisitsUsed, &a.UnitsRequested,
		&a.FacilityID, &a.FacilityName, &a.ExpiredAt, &a.RenewalInitiated,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *AuthorizationRequest) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO authorization_requests (id, patient_id, patient_name, payer_id, payer_name_custom,
			service_type, procedure_codes, diagnosis_codes,
			service_start_date, service_end_date, status, urgency_level,
			authorization_expiration_date, visits_authorized, visits_used, units_requested,
			facility_id, facility_name, renewal_initiated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		a.ID, a.PatientID, a.PatientName, a.PayerID, a.PayerNameCustom,
		a.ServiceType, a.ProcedureCodes, a.DiagnosisCodes,
		a.ServiceStartDate, a.ServiceEndDate, a.Status, a.UrgencyLevel,
		a.AuthorizationExpirationDate, a.VisitsAuthorized, a.VisitsUsed, a.UnitsRequested,
		a.FacilityID, a.FacilityName, a.RenewalInitiated)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*AuthorizationRequest, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+authCols+authFrom+` WHERE a.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *AuthorizationRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE authorization_requests SET patient_name=$2, payer_id=$3, payer_name_custom=$4,
			service_type=$5, procedure_codes=$6, diagnosis_codes=$7,
			service_start_date=$8, service_end_date=$9, urgency_level=$10,
			authorization_expiration_date=$11, visits_authorized=$12, units_requested=$13,
			facility_id=$14, facility_name=$15, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientName, a.PayerID, a.PayerNameCustom,
		a.ServiceType, a.ProcedureCodes, a.DiagnosisCodes,
		a.ServiceStartDate, a.ServiceEndDate, a.UrgencyLevel,
		a.AuthorizationExpirationDate, a.VisitsAuthorized, a.UnitsRequested,
		a.FacilityID, a.FacilityName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM authorization_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter Filter, limit, offset int) ([]*AuthorizationRequest, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if filter.Status != "" {
		n++
		where += fmt.Sprintf(" AND a.status = $%d", n)
		args = append(args, filter.Status)
	}
	if filter.PatientID != nil {
		n++
		where += fmt.Sprintf(" AND a.patient_id = $%d", n)
		args = append(args, *filter.PatientID)
	}
	if filter.PayerID != nil {
		n++
		where += fmt.Sprintf(" AND a.payer_id = $%d", n)
		args = append(args, *filter.PayerID)
	}
	if filter.ExpiringWithin != nil {
		n++
		where += fmt.Sprintf(" AND COALESCE(a.authorization_expiration_date, a.service_end_date)"+
			" <= NOW() + make_interval(days => $%d)", n)
		args = append(args, *filter.ExpiringWithin)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+authFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + authCols + authFrom + where +
		fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*AuthorizationRequest
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE authorization_requests SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordVisit performs the increment and the event append in one transaction.
// The UPDATE carries the balance condition so the database serializes
// concurrent recordings; a zero-row result is diagnosed with a follow-up read.
func (r *repoPG) RecordVisit(ctx context.Context, event *VisitUsageEvent) (int, bool, error) {
	var remaining int
	var unlimited bool

	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		var used, authorized, units int
		row := r.conn(ctx).QueryRow(ctx, `
			UPDATE authorization_requests
			   SET visits_used = visits_used + 1, updated_at = NOW()
			 WHERE id = $1
			   AND expired_at IS NULL
			   AND (CASE WHEN visits_authorized = 0 THEN COALESCE(units_requested, 0) ELSE visits_authorized END = 0
			        OR visits_used < CASE WHEN visits_authorized = 0 THEN COALESCE(units_requested, 0) ELSE visits_authorized END)
			 RETURNING visits_used, visits_authorized, COALESCE(units_requested, 0)`,
			event.AuthorizationID)
		if err := row.Scan(&used, &authorized, &units); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			return r.diagnoseRejectedVisit(ctx, event.AuthorizationID)
		}

		effective := authorized
		if effective == 0 {
			effective = units
		}
		unlimited = effective == 0
		if !unlimited {
			remaining = effective - used
		}

		event.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO visit_usage_events (id, authorization_id, visit_date, cpt_codes, status, recorded_by, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			event.ID, event.AuthorizationID, event.VisitDate, event.CPTCodes,
			event.Status, event.RecordedBy, event.Notes)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return remaining, unlimited, nil
}

// diagnoseRejectedVisit re-reads the row to turn a zero-row conditional
// update into the precise rejection. Expiry outranks exhaustion.
func (r *repoPG) diagnoseRejectedVisit(ctx context.Context, id uuid.UUID) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.ExpiredAt != nil {
		return ErrExpired
	}
	return ErrVisitsExhausted
}

func (r *repoPG) MarkRenewalInitiated(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE authorization_requests SET renewal_initiated = TRUE, updated_at = NOW()
		 WHERE id = $1 AND NOT renewal_initiated`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrRenewalInitiated
	}
	return nil
}

func (r *repoPG) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE authorization_requests
		   SET expired_at = $1, updated_at = NOW()
		 WHERE status = $2
		   AND expired_at IS NULL
		   AND NOT renewal_initiated
		   AND COALESCE(authorization_expiration_date, service_end_date) < $3`,
		now, StatusApproved, now.Truncate(24*time.Hour))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) ListExpiringWithin(ctx context.Context, now time.Time, days int) ([]*AuthorizationRequest, error) {
	horizon := now.AddDate(0, 0, days)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+authCols+authFrom+`
		 WHERE a.status = $1
		   AND NOT a.renewal_initiated
		   AND COALESCE(a.authorization_expiration_date, a.service_end_date) <= $2
		 ORDER BY COALESCE(a.authorization_expiration_date, a.service_end_date) ASC`,
		StatusApproved, horizon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*AuthorizationRequest
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) ListVisitEvents(ctx context.Context, authorizationID uuid.UUID, limit, offset int) ([]*VisitUsageEvent, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit_usage_events WHERE authorization_id = $1`, authorizationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, authorization_id, visit_date, cpt_codes, status, recorded_by, notes, created_at
		  FROM visit_usage_events
		 WHERE authorization_id = $1
		 ORDER BY visit_date DESC, created_at DESC
		 LIMIT $2 OFFSET $3`, authorizationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*VisitUsageEvent
	for rows.Next() {
		var e VisitUsageEvent
		if err := rows.Scan(&e.ID, &e.AuthorizationID, &e.VisitDate, &e.CPTCodes,
			&e.Status, &e.RecordedBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) DismissAlert(ctx context.Context, d *AlertDismissal) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO alert_dismissals (id, authorization_id, alert_tier, dismissed_by, dismissed_at)
		VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (authorization_id, alert_tier) DO NOTHING`,
		d.ID, d.AuthorizationID, d.AlertTier, d.DismissedBy)
	return err
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, r.pool, fn)
}

func (r *repoPG) DismissedTiers(ctx context.Context, authorizationIDs []uuid.UUID) (map[uuid.UUID]map[string]bool, error) {
	result := make(map[uuid.UUID]map[string]bool)
	if len(authorizationIDs) == 0 {
		return result, nil
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT authorization_id, alert_tier FROM alert_dismissals
		 WHERE authorization_id = ANY($1)`, authorizationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var tier string
		if err := rows.Scan(&id, &tier); err != nil {
			return nil, err
		}
		if result[id] == nil {
			result[id] = make(map[string]bool)
		}
		result[id][tier] = true
	}
	return result, rows.Err()
}
