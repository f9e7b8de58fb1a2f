package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
)

var fileNumberPrefixPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// SettingsStore caches app settings in memory. The cache is filled by Load at
// startup and refreshed only by Reload and Update.
type SettingsStore struct {
	repo      repositories.SettingsRepository
	txManager repositories.TransactionManager
	audit     services.AuditService
	logger    *slog.Logger

	mu      sync.RWMutex
	current models.AppSettings
}

// NewSettingsStore creates a store holding default settings until Load is called
func NewSettingsStore(
	repo repositories.SettingsRepository,
	txManager repositories.TransactionManager,
	audit services.AuditService,
	logger *slog.Logger,
) *SettingsStore {
	return &SettingsStore{
		repo:      repo,
		txManager: txManager,
		audit:     audit,
		logger:    logger,
		current:   models.DefaultAppSettings(),
	}
}

// Load reads settings for the first time
func (s *SettingsStore) Load(ctx context.Context) error {
	_, err := s.Reload(ctx)
	return err
}

// Current returns the cached settings
func (s *SettingsStore) Current() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads every key from the database
func (s *SettingsStore) Reload(ctx context.Context) (models.AppSettings, error) {
	raw, err := s.repo.GetAll(ctx)
	if err != nil {
		return s.Current(), fmt.Errorf("load settings: %w", err)
	}

	settings := s.decode(raw)
	settings.UpdatedAt = time.Now()

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.logger.Debug("settings loaded", "keys", len(raw), "prefix", settings.FileNumberPrefix)
	return settings, nil
}

// decode starts from defaults and overlays every stored key it can parse.
// Malformed values keep the default and are logged.
func (s *SettingsStore) decode(raw map[string][]byte) models.AppSettings {
	settings := models.DefaultAppSettings()

	strs := map[string]*string{
		models.SettingFileNumberPrefix: &settings.FileNumberPrefix,
		models.SettingBusinessName:     &settings.BusinessName,
		models.SettingBusinessEmail:    &settings.BusinessEmail,
		models.SettingBusinessPhone:    &settings.BusinessPhone,
		models.SettingBusinessAddress:  &settings.BusinessAddress,
		models.SettingBusinessWebsite:  &settings.BusinessWebsite,
	}
	ints := map[string]*int{
		models.SettingFileNumberSequence: &settings.FileNumberSequence,
		models.SettingFileNumberPadding:  &settings.FileNumberPadding,
	}

	for key, value := range raw {
		if dst, ok := strs[key]; ok {
			v, err := models.SettingString(value)
			if err != nil {
				s.logger.Warn("ignoring malformed setting", "key", key, "error", err)
				continue
			}
			*dst = v
			continue
		}
		if dst, ok := ints[key]; ok {
			v, err := models.SettingInt(value)
			if err != nil {
				s.logger.Warn("ignoring malformed setting", "key", key, "error", err)
				continue
			}
			*dst = v
		}
	}

	if settings.FileNumberPrefix == "" {
		settings.FileNumberPrefix = models.DefaultAppSettings().FileNumberPrefix
	}
	return settings
}

// Update validates and persists the provided fields in one transaction, then reloads
func (s *SettingsStore) Update(ctx context.Context, p *models.Principal, req *services.UpdateSettingsRequest) (models.AppSettings, error) {
	if err := s.validateUpdate(req); err != nil {
		return s.Current(), fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	values := map[string]interface{}{}
	setIf := func(key string, present bool, v interface{}) {
		if present {
			values[key] = v
		}
	}
	setIf(models.SettingFileNumberPrefix, req.FileNumberPrefix != nil, deref(req.FileNumberPrefix))
	setIf(models.SettingFileNumberSequence, req.FileNumberSequence != nil, derefInt(req.FileNumberSequence))
	setIf(models.SettingFileNumberPadding, req.FileNumberPadding != nil, derefInt(req.FileNumberPadding))
	setIf(models.SettingBusinessName, req.BusinessName != nil, deref(req.BusinessName))
	setIf(models.SettingBusinessEmail, req.BusinessEmail != nil, deref(req.BusinessEmail))
	setIf(models.SettingBusinessPhone, req.BusinessPhone != nil, deref(req.BusinessPhone))
	setIf(models.SettingBusinessAddress, req.BusinessAddress != nil, deref(req.BusinessAddress))
	setIf(models.SettingBusinessWebsite, req.BusinessWebsite != nil, deref(req.BusinessWebsite))

	if len(values) == 0 {
		return s.Current(), nil
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		for key, v := range values {
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode setting %s: %w", key, err)
			}
			if err := s.repo.Upsert(ctx, key, raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.Current(), err
	}

	settings, err := s.Reload(ctx)
	if err != nil {
		return settings, err
	}

	s.logger.Info("settings updated", "keys", len(values))
	s.audit.Record(ctx, p, models.AuditUpdate, "app_settings", "app_settings", values)
	return settings, nil
}

func (s *SettingsStore) validateUpdate(req *services.UpdateSettingsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FileNumberPrefix,
			validation.NilOrNotEmpty,
			validation.Length(1, 10),
			validation.Match(fileNumberPrefixPattern).Error("must contain only letters and digits"),
		),
		validation.Field(&req.FileNumberSequence, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&req.FileNumberPadding, validation.NilOrNotEmpty, validation.Min(1), validation.Max(10)),
		validation.Field(&req.BusinessName, validation.Length(0, 255)),
		validation.Field(&req.BusinessEmail, is.EmailFormat),
		validation.Field(&req.BusinessPhone, validation.Length(0, 50)),
		validation.Field(&req.BusinessAddress, validation.Length(0, 1000)),
		validation.Field(&req.BusinessWebsite, is.URL),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
