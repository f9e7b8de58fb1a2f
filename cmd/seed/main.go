package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"titledesk/internal/auth"
	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/permissions"
	"titledesk/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed roles, settings or the admin user")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.IsProduction() && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	roleRepo := postgres.NewRoleRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	settingsRepo := postgres.NewSettingsRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	catalog, err := permissions.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load permission catalog: %v", err)
	}
	if err := catalog.Sync(ctx, roleRepo); err != nil {
		log.Fatalf("Failed to sync permissions: %v", err)
	}
	log.Printf("✅ Synced %d permissions", len(catalog.All()))

	allSlugs := make([]string, 0, len(catalog.All()))
	for _, p := range catalog.All() {
		allSlugs = append(allSlugs, p.Slug)
	}

	adminRole, err := ensureRole(ctx, roleRepo, txManager, models.AdminRoleName, "Full access to every module", allSlugs)
	if err != nil {
		log.Fatalf("Failed to seed admin role: %v", err)
	}
	if _, err := ensureRole(ctx, roleRepo, txManager, models.DefaultRoleName, "Default role for registered users", permissions.DefaultUserPermissions); err != nil {
		log.Fatalf("Failed to seed user role: %v", err)
	}
	log.Println("✅ Roles ready")

	created, err := ensureDefaultSettings(ctx, settingsRepo)
	if err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}
	log.Printf("✅ Settings ready (%d defaults written)", created)

	if cfg.SeedAdminPassword == "" {
		log.Println("⚠️  SEED_ADMIN_PASSWORD not set, skipping admin user")
	} else if err := ensureAdminUser(ctx, userRepo, adminRole.ID, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// ensureRole creates the role when missing and replaces its permissions
func ensureRole(ctx context.Context, roles repositories.RoleRepository, tx repositories.TransactionManager, name, description string, slugs []string) (*models.Role, error) {
	role, err := roles.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	err = tx.ExecTx(ctx, func(ctx context.Context) error {
		if role == nil {
			now := time.Now()
			role = &models.Role{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
			if err := roles.Create(ctx, role); err != nil {
				return err
			}
			log.Printf("➕ Created role %q", name)
		}
		return roles.SetPermissions(ctx, role.ID, slugs)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// ensureDefaultSettings writes default values for keys that have never been stored
func ensureDefaultSettings(ctx context.Context, settings repositories.SettingsRepository) (int, error) {
	stored, err := settings.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	defaults := models.DefaultAppSettings()
	values := map[string]interface{}{
		models.SettingFileNumberPrefix:   defaults.FileNumberPrefix,
		models.SettingFileNumberSequence: defaults.FileNumberSequence,
		models.SettingFileNumberPadding:  defaults.FileNumberPadding,
		models.SettingBusinessName:       defaults.BusinessName,
		models.SettingBusinessEmail:      defaults.BusinessEmail,
		models.SettingBusinessPhone:      defaults.BusinessPhone,
		models.SettingBusinessAddress:    defaults.BusinessAddress,
		models.SettingBusinessWebsite:    defaults.BusinessWebsite,
	}

	created := 0
	for key, v := range values {
		if _, ok := stored[key]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return created, fmt.Errorf("encode %s: %w", key, err)
		}
		if err := settings.Upsert(ctx, key, raw); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// ensureAdminUser creates an active admin account unless the email is already registered
func ensureAdminUser(ctx context.Context, users repositories.UserRepository, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		log.Printf("ℹ️  Admin user %s already exists (ID: %s)", email, existing.ID)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	user := &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		RoleID:       &roleID,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		return err
	}
	log.Printf("✅ Created admin user %s (ID: %s)", email, user.ID)
	return nil
}
