package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Applications         string
	ApplicationQueries   string
	ApplicationDocuments string
	ApplicationPDFs      string
	Companies            string
	CompanyFiles         string
	Branches             string
	Users                string
	UserCompanies        string
	UserPermissions      string
	Roles                string
	Permissions          string
	RolePermissions      string
	Notifications        string
	AuditLogs            string
	AppSettings          string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Applications:         prefix + "applications",
		ApplicationQueries:   prefix + "application_queries",
		ApplicationDocuments: prefix + "application_documents",
		ApplicationPDFs:      prefix + "application_pdf_uploads",
		Companies:            prefix + "companies",
		CompanyFiles:         prefix + "company_files",
		Branches:             prefix + "branches",
		Users:                prefix + "users",
		UserCompanies:        prefix + "user_companies",
		UserPermissions:      prefix + "user_permissions",
		Roles:                prefix + "roles",
		Permissions:          prefix + "permissions",
		RolePermissions:      prefix + "role_permissions",
		Notifications:        prefix + "notifications",
		AuditLogs:            prefix + "audit_logs",
		AppSettings:          prefix + "app_settings",
	}
}

// DropOrder lists tables children-first so they can be dropped without FK errors
func (t *TableNames) DropOrder() []string {
	return []string{
		t.Notifications,
		t.AuditLogs,
		t.ApplicationPDFs,
		t.ApplicationDocuments,
		t.ApplicationQueries,
		t.Applications,
		t.CompanyFiles,
		t.UserCompanies,
		t.UserPermissions,
		t.RolePermissions,
		t.Users,
		t.Roles,
		t.Permissions,
		t.Companies,
		t.Branches,
		t.AppSettings,
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a ping.
//
// Port 6543 is the conventional PgBouncer transaction-pooler port, which does not
// support prepared statements; there the exec mode is switched to cache_describe
// unless the connection string already sets default_query_exec_mode.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
