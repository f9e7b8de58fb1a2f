package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	"titledesk/internal/metrics"
)

// MaxFileNumberAttempts bounds the sequential search before falling back to a random suffix
const MaxFileNumberAttempts = 20

// FormatFileNumber renders prefix-{seq zero-padded to padding digits}
func FormatFileNumber(prefix string, padding, seq int) string {
	return fmt.Sprintf("%s-%0*d", prefix, padding, seq)
}

// fileNumberGenerator implements FileNumberGenerator over the settings counter
type fileNumberGenerator struct {
	appRepo      repositories.ApplicationRepository
	settingsRepo repositories.SettingsRepository
	settings     services.SettingsService
	logger       *slog.Logger
	randIntN     func(n int) int
}

// NewFileNumberGenerator creates a generator. Next must run inside a transaction
// so the counter rows stay locked until the new application is inserted.
func NewFileNumberGenerator(
	appRepo repositories.ApplicationRepository,
	settingsRepo repositories.SettingsRepository,
	settings services.SettingsService,
	logger *slog.Logger,
) services.FileNumberGenerator {
	return &fileNumberGenerator{
		appRepo:      appRepo,
		settingsRepo: settingsRepo,
		settings:     settings,
		logger:       logger,
		randIntN:     rand.IntN,
	}
}

// Next returns the first free sequential number, persisting the counter past it.
// Lookup errors count as collisions. It never returns an error.
func (g *fileNumberGenerator) Next(ctx context.Context) string {
	counter, err := g.settingsRepo.LockFileNumber(ctx)
	if err != nil {
		current := g.settings.Current()
		g.logger.Warn("file number counter unavailable", "error", err)
		return g.fallback(current.FileNumberPrefix, 0)
	}

	seq := counter.Sequence
	for attempt := 1; attempt <= MaxFileNumberAttempts; attempt++ {
		candidate := FormatFileNumber(counter.Prefix, counter.Padding, seq)

		exists, err := g.appRepo.FileNumberExists(ctx, candidate)
		if err != nil {
			g.logger.Warn("file number lookup failed", "candidate", candidate, "error", err)
		}
		if err == nil && !exists {
			if err := g.settingsRepo.SetSequence(ctx, seq+1); err != nil {
				g.logger.Warn("failed to persist file number sequence", "next", seq+1, "error", err)
			}
			metrics.RecordFileNumber(false)
			return candidate
		}
		seq++
	}

	return g.fallback(counter.Prefix, MaxFileNumberAttempts)
}

func (g *fileNumberGenerator) fallback(prefix string, attempts int) string {
	if prefix == "" {
		prefix = models.DefaultAppSettings().FileNumberPrefix
	}
	candidate := fmt.Sprintf("%s-%05d", prefix, 10000+g.randIntN(90000))

	metrics.RecordFileNumber(true)
	g.logger.Warn("file number fallback used", "file_number", candidate, "attempts", attempts)
	return candidate
}
