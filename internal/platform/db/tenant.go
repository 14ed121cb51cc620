package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	CompanyIDKey contextKey = "company_id"
	DBConnKey    contextKey = "db_conn"
	DBTxKey      contextKey = "db_tx"
)

var companyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// CompanyMiddleware resolves the caller's company and pins the request to the
// company's schema. Every row the request touches is scoped by that schema, so
// the domain layer never filters by company explicitly.
func CompanyMiddleware(pool *pgxpool.Pool, defaultCompany string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			companyID := extractCompanyID(c, defaultCompany)

			if !companyIDPattern.MatchString(companyID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid company identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := fmt.Sprintf("company_%s", companyID)
			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "company resolution failed")
			}

			ctx = context.WithValue(ctx, CompanyIDKey, companyID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("company_id", companyID)
			c.Set("db", conn)

			return next(c)
		}
	}
}

func extractCompanyID(c echo.Context, defaultCompany string) string {
	// 1. Check JWT claim (set by auth middleware)
	if cid, ok := c.Get("jwt_company_id").(string); ok && cid != "" {
		return cid
	}

	// 2. Check X-Company-ID header
	if cid := c.Request().Header.Get("X-Company-ID"); cid != "" {
		return cid
	}

	// 3. Check query parameter
	if cid := c.QueryParam("company_id"); cid != "" {
		return cid
	}

	return defaultCompany
}

// ConnFromContext retrieves the company-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// CompanyFromContext retrieves the company ID from context.
func CompanyFromContext(ctx context.Context) string {
	cid, _ := ctx.Value(CompanyIDKey).(string)
	return cid
}

// CreateCompanySchema creates a new schema for a company and runs all
// migrations against it. If migrationsDir is empty, migrations are skipped.
func CreateCompanySchema(ctx context.Context, pool *pgxpool.Pool, companyID string, migrationsDir string) error {
	if !companyIDPattern.MatchString(companyID) {
		return fmt.Errorf("invalid company identifier: %s", companyID)
	}

	schema := fmt.Sprintf("company_%s", companyID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
