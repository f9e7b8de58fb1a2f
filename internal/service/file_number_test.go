package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain/models"
)

func newTestGenerator(apps *memApplications, repo *memSettingsRepo) *fileNumberGenerator {
	g := NewFileNumberGenerator(apps, repo, &staticSettings{current: models.DefaultAppSettings()}, discardLogger()).(*fileNumberGenerator)
	g.randIntN = func(int) int { return 2345 }
	return g
}

func TestFormatFileNumber(t *testing.T) {
	assert.Equal(t, "ULF-0001", FormatFileNumber("ULF", 4, 1))
	assert.Equal(t, "ULF-12345", FormatFileNumber("ULF", 4, 12345))
	assert.Equal(t, "TS-000042", FormatFileNumber("TS", 6, 42))
}

func TestNext_Sequential(t *testing.T) {
	apps := newMemApplications()
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Prefix: "ULF", Sequence: 1, Padding: 4}}
	g := newTestGenerator(apps, repo)

	assert.Equal(t, "ULF-0001", g.Next(context.Background()))
	assert.Equal(t, []int{2}, repo.setCalls)
}

func TestNext_SkipsCollisions(t *testing.T) {
	apps := newMemApplications()
	apps.taken["ULF-0007"] = true
	apps.taken["ULF-0008"] = true
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Prefix: "ULF", Sequence: 7, Padding: 4}}
	g := newTestGenerator(apps, repo)

	assert.Equal(t, "ULF-0009", g.Next(context.Background()))
	assert.Equal(t, 10, repo.counter.Sequence)
}

func TestNext_LookupErrorCountsAsCollision(t *testing.T) {
	apps := newMemApplications()
	apps.lookupErr["ULF-0001"] = errors.New("connection reset")
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Prefix: "ULF", Sequence: 1, Padding: 4}}
	g := newTestGenerator(apps, repo)

	assert.Equal(t, "ULF-0002", g.Next(context.Background()))
}

func TestNext_FallbackAfterMaxAttempts(t *testing.T) {
	apps := newMemApplications()
	for seq := 1; seq <= MaxFileNumberAttempts; seq++ {
		apps.taken[FormatFileNumber("ULF", 4, seq)] = true
	}
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Prefix: "ULF", Sequence: 1, Padding: 4}}
	g := newTestGenerator(apps, repo)

	got := g.Next(context.Background())
	assert.Equal(t, "ULF-12345", got)
	assert.Regexp(t, regexp.MustCompile(`^ULF-\d{5}$`), got)
	assert.Empty(t, repo.setCalls, "fallback must not move the counter")
}

func TestNext_CounterUnavailableStillReturnsNumber(t *testing.T) {
	repo := &memSettingsRepo{lockErr: errors.New("no transaction")}
	g := newTestGenerator(newMemApplications(), repo)

	got := g.Next(context.Background())
	require.NotEmpty(t, got)
	assert.Regexp(t, `^ULF-\d{5}$`, got)
}

func TestCreateApplication_ConsecutiveGeneratedNumbers(t *testing.T) {
	apps := newMemApplications()
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Prefix: "ULF", Sequence: 1, Padding: 4}}
	settings := &staticSettings{current: models.DefaultAppSettings()}
	gen := NewFileNumberGenerator(apps, repo, settings, discardLogger())
	tx := &passthroughTx{}
	svc := NewApplicationService(apps, tx, gen, settings, &fixedScope{}, nil, &nopAudit{}, "Applications", discardLogger())

	p := staffPrincipal("u1")
	var numbers []string
	for i := 0; i < 3; i++ {
		app, err := svc.CreateApplication(context.Background(), p, newCreateRequest("Acme Bank"))
		require.NoError(t, err)
		numbers = append(numbers, app.FileNumber)
	}

	assert.Equal(t, []string{"ULF-0001", "ULF-0002", "ULF-0003"}, numbers)
	assert.Equal(t, 4, repo.counter.Sequence)
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 3, settings.reloads)
}
