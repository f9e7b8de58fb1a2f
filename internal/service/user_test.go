package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/permissions"
)

func newTestUserService(t *testing.T, users *memUsers, roles *memRoles, audit *nopAudit) services.UserService {
	t.Helper()
	catalog, err := permissions.NewCatalog()
	require.NoError(t, err)
	return NewUserService(users, roles, catalog, &passthroughTx{}, audit, discardLogger())
}

func TestForceLogout_StampsUser(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{
		"u1": {ID: "u1", Email: "clerk@firm.test", Status: models.UserActive},
	}}
	audit := &nopAudit{}
	svc := newTestUserService(t, users, &memRoles{}, audit)

	require.NoError(t, svc.ForceLogout(context.Background(), staffPrincipal("admin"), "u1"))

	assert.Equal(t, []string{"u1"}, users.forcedLogouts)
	require.NotNil(t, users.byID["u1"].ForcedLogoutAt)
	assert.Equal(t, []string{"user:update"}, audit.records)
}

func TestForceLogout_UnknownUser(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{}}
	svc := newTestUserService(t, users, &memRoles{}, &nopAudit{})

	err := svc.ForceLogout(context.Background(), staffPrincipal("admin"), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, users.forcedLogouts)
}

func TestGetUserPermissions_OverridesAndEffective(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{
		"u1": {ID: "u1", RoleName: "processor"},
	}}
	roles := &memRoles{
		overrides: map[string][]string{"u1": {permissions.UploadDocuments}},
		effective: map[string][]string{"u1": {permissions.UploadDocuments, permissions.ViewApplications}},
	}
	svc := newTestUserService(t, users, roles, &nopAudit{})

	got, err := svc.GetUserPermissions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "processor", got.Role)
	assert.Equal(t, []string{permissions.UploadDocuments}, got.Overrides)
	assert.Equal(t, []string{permissions.UploadDocuments, permissions.ViewApplications}, got.Effective)
}

func TestGetUserPermissions_EmptySetsAreNotNil(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := newTestUserService(t, users, &memRoles{}, &nopAudit{})

	got, err := svc.GetUserPermissions(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got.Overrides)
	assert.NotNil(t, got.Effective)
}

func TestSetUserPermissions_DedupesAndStores(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{"u1": {ID: "u1"}}}
	roles := &memRoles{}
	audit := &nopAudit{}
	svc := newTestUserService(t, users, roles, audit)

	_, err := svc.SetUserPermissions(context.Background(), staffPrincipal("admin"), "u1",
		[]string{permissions.ManageQueries, " " + permissions.ManageQueries, permissions.UploadDocuments})
	require.NoError(t, err)

	assert.Equal(t, []string{permissions.ManageQueries, permissions.UploadDocuments}, roles.overrides["u1"])
	assert.Equal(t, []string{"user_permissions:update"}, audit.records)
}

func TestSetUserPermissions_UnknownSlug(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{"u1": {ID: "u1"}}}
	roles := &memRoles{}
	svc := newTestUserService(t, users, roles, &nopAudit{})

	_, err := svc.SetUserPermissions(context.Background(), staffPrincipal("admin"), "u1", []string{"launch_rockets"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "launch_rockets")
	assert.Nil(t, roles.overrides)
}

func TestDeleteUser_Self(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{"admin": {ID: "admin"}}}
	svc := newTestUserService(t, users, &memRoles{}, &nopAudit{})

	err := svc.DeleteUser(context.Background(), staffPrincipal("admin"), "admin")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateUser_CannotDeactivateSelf(t *testing.T) {
	users := &memUsers{byID: map[string]*models.User{
		"admin": {ID: "admin", Name: "Admin", Email: "admin@firm.test", Status: models.UserActive},
	}}
	svc := newTestUserService(t, users, &memRoles{}, &nopAudit{})

	inactive := models.UserInactive
	_, err := svc.UpdateUser(context.Background(), staffPrincipal("admin"), "admin", &services.UpdateUserRequest{Status: &inactive})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "deactivate your own account")
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"b", " a", "", "b", "a "}))
	assert.Equal(t, []string{}, dedupe(nil))
}
