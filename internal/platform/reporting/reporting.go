package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/internal/platform/db"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "authorization-status-counts",
		Name:        "Authorization Status Counts",
		Description: "Number of authorization requests grouped by stored status",
		SQL:         `SELECT status, COUNT(*) AS total FROM authorization_requests GROUP BY status ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "expiring-authorizations",
		Name:        "Expiring Authorizations",
		Description: "Approved authorizations bucketed by days until expiration (7/14/30)",
		SQL: `SELECT CASE
				WHEN exp < CURRENT_DATE THEN 'expired'
				WHEN exp <= CURRENT_DATE + 7 THEN 'within_7_days'
				WHEN exp <= CURRENT_DATE + 14 THEN 'within_14_days'
				WHEN exp <= CURRENT_DATE + 30 THEN 'within_30_days'
				ELSE 'later' END AS bucket,
			COUNT(*) AS total
		FROM (SELECT COALESCE(authorization_expiration_date, service_end_date)::date AS exp
			FROM authorization_requests
			WHERE status = 'approved' AND NOT renewal_initiated) sub
		WHERE exp IS NOT NULL
		GROUP BY bucket ORDER BY total DESC`,
		Parameters: []string{},
	},
	{
		ID:          "denial-rate",
		Name:        "Denial Rate",
		Description: "Denied share of decided authorization requests",
		SQL: `SELECT COUNT(*) FILTER (WHERE status = 'denied') AS denied,
			COUNT(*) FILTER (WHERE status IN ('approved', 'denied')) AS decided,
			ROUND(COUNT(*) FILTER (WHERE status = 'denied')::numeric
				/ NULLIF(COUNT(*) FILTER (WHERE status IN ('approved', 'denied')), 0) * 100, 1) AS denial_pct
		FROM authorization_requests`,
		Parameters: []string{},
	},
	{
		ID:          "appeal-outcomes",
		Name:        "Appeal Outcomes",
		Description: "Appeals grouped by status, with denial dollars at stake",
		SQL: `SELECT a.status, COUNT(*) AS total, COALESCE(SUM(d.denied_amount), 0) AS denied_amount
		FROM appeals a JOIN denials d ON d.id = a.denial_id
		GROUP BY a.status ORDER BY total DESC`,
		Parameters: []string{},
	},
	{
		ID:          "visit-utilization",
		Name:        "Visit Utilization",
		Description: "Authorized versus used visits on open approved authorizations",
		SQL: `SELECT COUNT(*) AS authorizations,
			SUM(visits_authorized) AS visits_authorized,
			SUM(visits_used) AS visits_used,
			ROUND(SUM(visits_used)::numeric / NULLIF(SUM(visits_authorized), 0) * 100, 1) AS utilization_pct
		FROM authorization_requests
		WHERE status = 'approved' AND expired_at IS NULL AND visits_authorized > 0`,
		Parameters: []string{},
	},
	{
		ID:          "open-tasks-by-code",
		Name:        "Open Tasks by Code",
		Description: "Open and in-progress work queue items grouped by task code",
		SQL: `SELECT code, COUNT(*) AS total FROM tasks
		WHERE status IN ('open', 'in_progress') GROUP BY code ORDER BY total DESC`,
		Parameters: []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new reporting handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("admin", "biller"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	})
}

// executeSQL runs a query on the tenant connection and returns results as a
// slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	var rows pgx.Rows
	var err error
	if conn := db.ConnFromContext(ctx); conn != nil {
		rows, err = conn.Query(ctx, sql)
	} else {
		rows, err = h.pool.Query(ctx, sql)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
