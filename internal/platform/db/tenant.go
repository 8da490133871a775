package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// TenantIDKey carries the clinic-network identifier.
	TenantIDKey contextKey = "tenant_id"
	// ConnKey carries the schema-scoped pool connection for the request.
	ConnKey contextKey = "db_conn"
	// TxKey carries an open transaction; when present it takes precedence
	// over the request connection so multi-write operations are atomic.
	TxKey contextKey = "db_tx"
)

// Querier is the subset of pgx used by repositories. *pgxpool.Pool,
// *pgxpool.Conn and pgx.Tx all satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// TenantMiddleware resolves the clinic network for each request, pins a
// connection to the network's schema and stashes it in the request context.
func TenantMiddleware(pool *pgxpool.Pool, defaultTenant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := extractTenantID(c, defaultTenant)
			if !tenantIDPattern.MatchString(tenantID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic network identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO tenant_%s, public", tenantID)); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "clinic network resolution failed")
			}

			ctx = context.WithValue(ctx, TenantIDKey, tenantID)
			ctx = context.WithValue(ctx, ConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", tenantID)

			return next(c)
		}
	}
}

func extractTenantID(c echo.Context, defaultTenant string) string {
	if tid := c.Request().Header.Get("X-Clinic-Network"); tid != "" {
		return tid
	}
	if tid := c.QueryParam("network"); tid != "" {
		return tid
	}
	return defaultTenant
}

// Conn returns the Querier repositories should use: an open transaction if
// one is running, otherwise the request's schema-scoped connection,
// otherwise the fallback (normally the pool).
func Conn(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(TxKey).(pgx.Tx); ok && tx != nil {
		return tx
	}
	if conn, ok := ctx.Value(ConnKey).(*pgxpool.Conn); ok && conn != nil {
		return conn
	}
	return fallback
}

// TenantFromContext returns the clinic-network identifier for the request.
func TenantFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(TenantIDKey).(string)
	return tid
}

// CreateTenantSchema provisions the schema for a new clinic network and,
// when migrationsDir is non-empty, brings it up to date.
func CreateTenantSchema(ctx context.Context, pool *pgxpool.Pool, tenantID, migrationsDir string) error {
	if !tenantIDPattern.MatchString(tenantID) {
		return fmt.Errorf("invalid clinic network identifier: %s", tenantID)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS tenant_%s", tenantID)); err != nil {
		return fmt.Errorf("create schema tenant_%s: %w", tenantID, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, "tenant_"+tenantID); err != nil {
			return fmt.Errorf("migrate tenant_%s: %w", tenantID, err)
		}
	}
	return nil
}
