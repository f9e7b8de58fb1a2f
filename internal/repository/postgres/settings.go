package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

// PostgresSettingsRepository implements the SettingsRepository interface
type PostgresSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(config *RepositoryConfig) repositories.SettingsRepository {
	return &PostgresSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetAll returns every stored key with its raw JSON value
func (r *PostgresSettingsRepository) GetAll(ctx context.Context) (map[string][]byte, error) {
	query := fmt.Sprintf(`SELECT key, value::text FROM %s`, r.tables.AppSettings)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// Upsert stores the JSON value for key
func (r *PostgresSettingsRepository) Upsert(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, r.tables.AppSettings)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// LockFileNumber seeds any missing counter keys with defaults, then reads all
// three with FOR UPDATE so concurrent creators serialize on them.
func (r *PostgresSettingsRepository) LockFileNumber(ctx context.Context) (*models.FileNumberSettings, error) {
	if !repositories.InTx(ctx) {
		return nil, fmt.Errorf("lock file number: must run inside a transaction")
	}
	executor := GetExecutor(ctx, r.pool)

	defaults := models.DefaultAppSettings()
	seed := map[string]interface{}{
		models.SettingFileNumberPrefix:   defaults.FileNumberPrefix,
		models.SettingFileNumberSequence: defaults.FileNumberSequence,
		models.SettingFileNumberPadding:  defaults.FileNumberPadding,
	}
	insert := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO NOTHING
	`, r.tables.AppSettings)
	for key, v := range seed {
		raw, _ := json.Marshal(v)
		if _, err := executor.Exec(ctx, insert, key, string(raw)); err != nil {
			return nil, fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	query := fmt.Sprintf(`
		SELECT key, value::text FROM %s WHERE key = ANY($1) ORDER BY key FOR UPDATE
	`, r.tables.AppSettings)
	rows, err := executor.Query(ctx, query, []string{
		models.SettingFileNumberPrefix,
		models.SettingFileNumberSequence,
		models.SettingFileNumberPadding,
	})
	if err != nil {
		return nil, fmt.Errorf("lock file number settings: %w", err)
	}
	defer rows.Close()

	out := &models.FileNumberSettings{
		Prefix:   defaults.FileNumberPrefix,
		Sequence: defaults.FileNumberSequence,
		Padding:  defaults.FileNumberPadding,
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case models.SettingFileNumberPrefix:
			if s, err := models.SettingString([]byte(value)); err == nil && s != "" {
				out.Prefix = s
			}
		case models.SettingFileNumberSequence:
			if n, err := models.SettingInt([]byte(value)); err == nil && n >= 1 {
				out.Sequence = n
			}
		case models.SettingFileNumberPadding:
			if n, err := models.SettingInt([]byte(value)); err == nil && n >= 1 {
				out.Padding = n
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	r.logger.Debug("file number counter locked", "prefix", out.Prefix, "sequence", out.Sequence)
	return out, nil
}

// SetSequence persists the next sequence value
func (r *PostgresSettingsRepository) SetSequence(ctx context.Context, next int) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	return r.Upsert(ctx, models.SettingFileNumberSequence, raw)
}
