package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/repository/postgres"
)

// runSchema creates every table and index if missing. Statements are idempotent.
func runSchema(ctx context.Context, pool *pgxpool.Pool, t *postgres.TableNames) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS ` + t.Permissions + ` (
			slug TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			module TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Roles + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.RolePermissions + ` (
			role_id UUID NOT NULL REFERENCES ` + t.Roles + `(id) ON DELETE CASCADE,
			permission_slug TEXT NOT NULL REFERENCES ` + t.Permissions + `(slug) ON DELETE CASCADE,
			PRIMARY KEY (role_id, permission_slug)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Companies + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			contact_person TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			notification_emails TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.CompanyFiles + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES ` + t.Companies + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			drive_item_id TEXT,
			created_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Branches + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			code TEXT NOT NULL DEFAULT '',
			contact_person TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Users + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role_id UUID REFERENCES ` + t.Roles + `(id) ON DELETE RESTRICT,
			status TEXT NOT NULL DEFAULT 'inactive' CHECK (status IN ('active', 'inactive')),
			forced_logout_at TIMESTAMPTZ,
			reset_token_hash TEXT,
			reset_token_expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.Users + `_reset_token ON ` + t.Users + `(reset_token_hash) WHERE reset_token_hash IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS ` + t.UserCompanies + ` (
			user_id UUID NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES ` + t.Companies + `(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, company_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.UserPermissions + ` (
			user_id UUID NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			permission_slug TEXT NOT NULL REFERENCES ` + t.Permissions + `(slug) ON DELETE CASCADE,
			PRIMARY KEY (user_id, permission_slug)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Applications + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			file_number TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			company_name TEXT NOT NULL,
			branch_name TEXT NOT NULL DEFAULT '',
			applicant_name TEXT NOT NULL DEFAULT '',
			owner_name TEXT NOT NULL DEFAULT '',
			property_address TEXT NOT NULL DEFAULT '',
			remarks TEXT,
			created_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.Applications + `_company ON ` + t.Applications + `(company_name)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.Applications + `_status ON ` + t.Applications + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.Applications + `_created ON ` + t.Applications + `(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS ` + t.ApplicationQueries + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			application_id UUID NOT NULL REFERENCES ` + t.Applications + `(id) ON DELETE CASCADE,
			message TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			raised_by TEXT,
			resolved_by TEXT,
			resolved_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.ApplicationQueries + `_application ON ` + t.ApplicationQueries + `(application_id)`,

		`CREATE TABLE IF NOT EXISTS ` + t.ApplicationDocuments + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			application_id UUID NOT NULL REFERENCES ` + t.Applications + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			drive_item_id TEXT NOT NULL,
			web_url TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			size BIGINT NOT NULL DEFAULT 0,
			uploaded_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.ApplicationDocuments + `_application ON ` + t.ApplicationDocuments + `(application_id)`,

		`CREATE TABLE IF NOT EXISTS ` + t.ApplicationPDFs + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			application_id UUID NOT NULL REFERENCES ` + t.Applications + `(id) ON DELETE CASCADE,
			file_number TEXT NOT NULL,
			folder_path TEXT NOT NULL,
			file_name TEXT NOT NULL,
			drive_item_id TEXT NOT NULL,
			web_url TEXT NOT NULL DEFAULT '',
			uploaded_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Notifications + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.Notifications + `_unread ON ` + t.Notifications + `(user_id) WHERE read_at IS NULL`,

		// user_id has no FK so entries outlive deleted users
		`CREATE TABLE IF NOT EXISTS ` + t.AuditLogs + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID,
			user_email TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL DEFAULT '',
			details JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.AuditLogs + `_entity ON ` + t.AuditLogs + `(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + t.AuditLogs + `_created ON ` + t.AuditLogs + `(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS ` + t.AppSettings + ` (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w\n%s", err, stmt)
		}
	}
	return nil
}

// dropAllTables drops every prefixed table, children first
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, t *postgres.TableNames) error {
	for _, table := range t.DropOrder() {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
