package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain/models"
)

func TestNewCatalog_EmbeddedFile(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	groups := c.Groups()
	require.NotEmpty(t, groups)
	assert.Equal(t, "applications", groups[0].Module, "modules keep file order")

	for _, slug := range []string{
		ViewApplications, CreateApplications, EditApplications, DeleteApplications,
		ManageQueries, UploadDocuments, ViewCompanies, ManageCompanies, ViewBranches,
		ManageBranches, ViewUsers, ManageUsers, ViewRoles, ManageRoles, ViewSettings,
		ManageSettings, ViewAuditLogs, UseOneDrive,
	} {
		assert.True(t, c.Has(slug), "catalog is missing %s", slug)
	}

	for _, slug := range DefaultUserPermissions {
		assert.True(t, c.Has(slug), "default permission %s not in catalog", slug)
	}
}

func TestCatalog_ModuleAssigned(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	for _, p := range c.All() {
		assert.NotEmpty(t, p.Module, "permission %s has no module", p.Slug)
		assert.NotEmpty(t, p.Name, "permission %s has no name", p.Slug)
	}
}

func TestParseCatalog_Duplicate(t *testing.T) {
	_, err := ParseCatalog([]byte(`
modules:
  a:
    - slug: x
      name: X
  b:
    - slug: x
      name: X again
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParseCatalog_MissingSlug(t *testing.T) {
	_, err := ParseCatalog([]byte(`
modules:
  a:
    - name: nameless
`))
	require.Error(t, err)
}

func TestCatalog_Unknown(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	assert.Empty(t, c.Unknown([]string{ViewApplications, ManageRoles}))
	assert.Equal(t, []string{"fly_planes"}, c.Unknown([]string{ViewApplications, "fly_planes"}))
}

type recordingUpserter struct {
	got []models.Permission
}

func (r *recordingUpserter) UpsertPermissions(_ context.Context, perms []models.Permission) error {
	r.got = perms
	return nil
}

func TestCatalog_Sync(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	store := &recordingUpserter{}
	require.NoError(t, c.Sync(context.Background(), store))
	assert.Len(t, store.got, len(c.All()))
	assert.Equal(t, ViewApplications, store.got[0].Slug)
}
