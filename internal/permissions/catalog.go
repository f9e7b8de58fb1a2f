package permissions

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"titledesk/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Permission slugs referenced by route declarations
const (
	ViewApplications   = "view_applications"
	CreateApplications = "create_applications"
	EditApplications   = "edit_applications"
	DeleteApplications = "delete_applications"
	ManageQueries      = "manage_queries"
	UploadDocuments    = "upload_documents"
	ViewCompanies      = "view_companies"
	ManageCompanies    = "manage_companies"
	ViewBranches       = "view_branches"
	ManageBranches     = "manage_branches"
	ViewUsers          = "view_users"
	ManageUsers        = "manage_users"
	ViewRoles          = "view_roles"
	ManageRoles        = "manage_roles"
	ViewSettings       = "view_settings"
	ManageSettings     = "manage_settings"
	ViewAuditLogs      = "view_audit_logs"
	UseOneDrive        = "use_onedrive"
)

// DefaultUserPermissions are granted to the built-in "user" role by the seeder
var DefaultUserPermissions = []string{
	ViewApplications,
	CreateApplications,
	EditApplications,
	ManageQueries,
	UploadDocuments,
	ViewCompanies,
	ViewBranches,
	UseOneDrive,
}

// Catalog is the embedded set of permissions grouped by module
type Catalog struct {
	groups []models.PermissionGroup
	bySlug map[string]models.Permission
	mu     sync.RWMutex
}

// catalogFile preserves module order from the YAML document
type catalogFile struct {
	Groups []models.PermissionGroup
}

// UnmarshalYAML walks the modules mapping node so modules keep their file order
func (c *catalogFile) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "modules" {
			continue
		}
		modulesNode := node.Content[i+1]
		for j := 0; j+1 < len(modulesNode.Content); j += 2 {
			module := modulesNode.Content[j].Value

			var perms []models.Permission
			if err := modulesNode.Content[j+1].Decode(&perms); err != nil {
				return fmt.Errorf("module %s: %w", module, err)
			}
			for k := range perms {
				perms[k].Module = module
			}
			c.Groups = append(c.Groups, models.PermissionGroup{Module: module, Permissions: perms})
		}
	}
	return nil
}

// NewCatalog loads the embedded catalog
func NewCatalog() (*Catalog, error) {
	data, err := configFiles.ReadFile("config/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML. Duplicate or empty slugs are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	c := &Catalog{
		groups: file.Groups,
		bySlug: make(map[string]models.Permission),
	}
	for _, g := range file.Groups {
		for _, p := range g.Permissions {
			if p.Slug == "" {
				return nil, fmt.Errorf("module %s: permission without slug", g.Module)
			}
			if _, dup := c.bySlug[p.Slug]; dup {
				return nil, fmt.Errorf("duplicate permission slug %q", p.Slug)
			}
			c.bySlug[p.Slug] = p
		}
	}
	return c, nil
}

// Groups returns the catalog grouped by module in file order
func (c *Catalog) Groups() []models.PermissionGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups
}

// All returns every permission in file order
func (c *Catalog) All() []models.Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Permission, 0, len(c.bySlug))
	for _, g := range c.groups {
		out = append(out, g.Permissions...)
	}
	return out
}

// Has reports whether slug is in the catalog
func (c *Catalog) Has(slug string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bySlug[slug]
	return ok
}

// Unknown returns the slugs not present in the catalog
func (c *Catalog) Unknown(slugs []string) []string {
	var unknown []string
	for _, s := range slugs {
		if !c.Has(s) {
			unknown = append(unknown, s)
		}
	}
	return unknown
}

// Upserter stores catalog entries
type Upserter interface {
	UpsertPermissions(ctx context.Context, perms []models.Permission) error
}

// Sync writes the catalog to the permissions table
func (c *Catalog) Sync(ctx context.Context, store Upserter) error {
	if err := store.UpsertPermissions(ctx, c.All()); err != nil {
		return fmt.Errorf("sync permission catalog: %w", err)
	}
	return nil
}
