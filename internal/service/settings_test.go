package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSettingsStore_LoadOverlaysDefaults(t *testing.T) {
	repo := &memSettingsRepo{
		values: map[string][]byte{
			models.SettingFileNumberPrefix:  []byte(`"TS"`),
			models.SettingFileNumberPadding: []byte(`"6"`),
			models.SettingBusinessName:      []byte(`{"broken":`),
		},
		counter: models.FileNumberSettings{Sequence: 42},
	}
	store := NewSettingsStore(repo, &passthroughTx{}, &nopAudit{}, discardLogger())
	require.NoError(t, store.Load(context.Background()))

	got := store.Current()
	assert.Equal(t, "TS", got.FileNumberPrefix)
	assert.Equal(t, 42, got.FileNumberSequence)
	assert.Equal(t, 6, got.FileNumberPadding)
	assert.Empty(t, got.BusinessName)
}

func TestSettingsStore_UpdateValidation(t *testing.T) {
	store := NewSettingsStore(&memSettingsRepo{}, &passthroughTx{}, &nopAudit{}, discardLogger())
	ctx := context.Background()

	cases := map[string]*services.UpdateSettingsRequest{
		"prefix with dash":   {FileNumberPrefix: strPtr("UL-F")},
		"empty prefix":       {FileNumberPrefix: strPtr("")},
		"zero sequence":      {FileNumberSequence: intPtr(0)},
		"padding too large":  {FileNumberPadding: intPtr(11)},
		"bad business email": {BusinessEmail: strPtr("nope")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.Update(ctx, staffPrincipal("admin"), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSettingsStore_UpdatePersistsAndReloads(t *testing.T) {
	repo := &memSettingsRepo{counter: models.FileNumberSettings{Sequence: 1}}
	audit := &nopAudit{}
	store := NewSettingsStore(repo, &passthroughTx{}, audit, discardLogger())

	got, err := store.Update(context.Background(), staffPrincipal("admin"), &services.UpdateSettingsRequest{
		FileNumberPrefix:  strPtr("TD"),
		FileNumberPadding: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "TD", got.FileNumberPrefix)
	assert.Equal(t, 5, got.FileNumberPadding)
	assert.Equal(t, `"TD"`, string(repo.values[models.SettingFileNumberPrefix]))
	assert.Equal(t, []string{"app_settings:update"}, audit.records)
}
