package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"
)

func TestRecord_AttributesPrincipal(t *testing.T) {
	repo := &memAuditLogs{}
	svc := NewAuditService(repo, discardLogger())

	svc.Record(context.Background(), staffPrincipal("u1"), models.AuditCreate, "company", "c1", map[string]interface{}{"name": "Acme"})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	assert.Equal(t, "u1@example.com", entry.UserEmail)
	assert.Equal(t, "company", entry.EntityType)
	assert.Equal(t, "c1", entry.EntityID)
	assert.Equal(t, "Acme", entry.Details["name"])
}

func TestRecord_SystemAction(t *testing.T) {
	repo := &memAuditLogs{}
	svc := NewAuditService(repo, discardLogger())

	svc.Record(context.Background(), nil, models.AuditUpdate, "settings", "", nil)

	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].UserID)
	assert.Equal(t, "system", repo.entries[0].UserEmail)
}

func TestRecord_WriteFailureIsSwallowed(t *testing.T) {
	repo := &memAuditLogs{createErr: errors.New("db down")}
	svc := NewAuditService(repo, discardLogger())

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), staffPrincipal("u1"), models.AuditDelete, "branch", "b1", nil)
	})
	assert.Empty(t, repo.entries)
}

func TestListAuditLogs_Filters(t *testing.T) {
	repo := &memAuditLogs{}
	svc := NewAuditService(repo, discardLogger())
	ctx := context.Background()

	svc.Record(ctx, staffPrincipal("u1"), models.AuditCreate, "company", "c1", nil)
	svc.Record(ctx, staffPrincipal("u2"), models.AuditCreate, "branch", "b1", nil)
	svc.Record(ctx, staffPrincipal("u1"), models.AuditDelete, "company", "c1", nil)

	page, err := svc.ListAuditLogs(ctx, &models.AuditLogFilter{EntityType: "company", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, config.DefaultPageSize, repo.lastFilter.Limit)

	page, err = svc.ListAuditLogs(ctx, &models.AuditLogFilter{EntityType: "company", Action: models.AuditDelete})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.AuditDelete, page.Items[0].Action)
}
