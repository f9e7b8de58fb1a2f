package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	scopeauth "titledesk/internal/service/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passthroughTx runs fn directly; fakes have no rollback
type passthroughTx struct{ calls int }

func (t *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.calls++
	return fn(ctx)
}

type nopAudit struct{ records []string }

func (a *nopAudit) Record(_ context.Context, _ *models.Principal, action, entityType, _ string, _ map[string]interface{}) {
	a.records = append(a.records, entityType+":"+action)
}

func (a *nopAudit) ListAuditLogs(context.Context, *models.AuditLogFilter) (*models.Page[models.AuditLog], error) {
	return models.EmptyPage[models.AuditLog](1, 20), nil
}

type memApplications struct {
	byID        map[string]*models.Application
	taken       map[string]bool
	lookupErr   map[string]error
	listCalls   int
	lastFilter  *models.ApplicationFilter
	statusCalls []models.ApplicationStatus
}

func newMemApplications() *memApplications {
	return &memApplications{
		byID:      map[string]*models.Application{},
		taken:     map[string]bool{},
		lookupErr: map[string]error{},
	}
}

func (r *memApplications) Create(_ context.Context, app *models.Application) error {
	if r.taken[app.FileNumber] {
		return &domain.ConflictError{Message: "duplicate file number", ResourceType: "application"}
	}
	app.ID = fmt.Sprintf("app-%d", len(r.byID)+1)
	cp := *app
	r.byID[app.ID] = &cp
	r.taken[app.FileNumber] = true
	return nil
}

func (r *memApplications) GetByID(_ context.Context, id string) (*models.Application, error) {
	app, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	cp := *app
	return &cp, nil
}

func (r *memApplications) List(_ context.Context, filter *models.ApplicationFilter) ([]models.Application, int, error) {
	r.listCalls++
	r.lastFilter = filter
	var out []models.Application
	for _, app := range r.byID {
		if app.IsDeleted() {
			continue
		}
		if filter.CompanyNames != nil && !scopeauth.InScope(filter.CompanyNames, app.CompanyName) {
			continue
		}
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memApplications) Update(_ context.Context, app *models.Application) error {
	cp := *app
	r.byID[app.ID] = &cp
	return nil
}

func (r *memApplications) SetStatus(_ context.Context, id string, status models.ApplicationStatus) error {
	app, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	app.Status = status
	r.statusCalls = append(r.statusCalls, status)
	return nil
}

func (r *memApplications) FileNumberExists(_ context.Context, fileNumber string) (bool, error) {
	if err := r.lookupErr[fileNumber]; err != nil {
		return false, err
	}
	return r.taken[fileNumber], nil
}

// memSettingsRepo holds the counter rows
type memSettingsRepo struct {
	values   map[string][]byte
	counter  models.FileNumberSettings
	lockErr  error
	setCalls []int
}

func (r *memSettingsRepo) GetAll(context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte, len(r.values)+1)
	for k, v := range r.values {
		out[k] = v
	}
	out[models.SettingFileNumberSequence] = []byte(fmt.Sprint(r.counter.Sequence))
	return out, nil
}

func (r *memSettingsRepo) Upsert(_ context.Context, key string, value []byte) error {
	if r.values == nil {
		r.values = map[string][]byte{}
	}
	r.values[key] = value
	return nil
}

func (r *memSettingsRepo) LockFileNumber(context.Context) (*models.FileNumberSettings, error) {
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	cp := r.counter
	return &cp, nil
}

func (r *memSettingsRepo) SetSequence(_ context.Context, next int) error {
	r.setCalls = append(r.setCalls, next)
	r.counter.Sequence = next
	return nil
}

type staticSettings struct {
	current models.AppSettings
	reloads int
}

func (s *staticSettings) Current() models.AppSettings { return s.current }

func (s *staticSettings) Reload(context.Context) (models.AppSettings, error) {
	s.reloads++
	return s.current, nil
}

func (s *staticSettings) Update(context.Context, *models.Principal, *services.UpdateSettingsRequest) (models.AppSettings, error) {
	return s.current, nil
}

// fixedScope restricts every principal to names (nil means unrestricted)
type fixedScope struct {
	names []string
}

func (s *fixedScope) CompanyNames(context.Context, *models.Principal) ([]string, error) {
	return s.names, nil
}

func (s *fixedScope) CanAccessCompany(_ context.Context, _ *models.Principal, companyName string) error {
	if !scopeauth.InScope(s.names, companyName) {
		return domain.ErrForbidden
	}
	return nil
}

type memQueries struct {
	byID map[string]*models.Query
}

func (r *memQueries) Create(_ context.Context, q *models.Query) error {
	if r.byID == nil {
		r.byID = map[string]*models.Query{}
	}
	q.ID = fmt.Sprintf("q-%d", len(r.byID)+1)
	cp := *q
	r.byID[q.ID] = &cp
	return nil
}

func (r *memQueries) GetByID(_ context.Context, id string) (*models.Query, error) {
	q, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *memQueries) ListByApplication(_ context.Context, applicationID string) ([]models.Query, error) {
	out := []models.Query{}
	for _, q := range r.byID {
		if q.ApplicationID == applicationID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *memQueries) UpdateResolution(_ context.Context, q *models.Query) error {
	cp := *q
	r.byID[q.ID] = &cp
	return nil
}

// memUsers implements the lookups used by auth, query and user services
type memUsers struct {
	repositories.UserRepository
	byID          map[string]*models.User
	companyUsers  []string
	forcedLogouts []string
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) SetForcedLogout(_ context.Context, id string, at time.Time) error {
	r.forcedLogouts = append(r.forcedLogouts, id)
	if u, ok := r.byID[id]; ok {
		u.ForcedLogoutAt = &at
	}
	return nil
}

func (r *memUsers) ActiveUserIDsForCompany(context.Context, string) ([]string, error) {
	return r.companyUsers, nil
}

// memRoles implements the role lookups used by auth and role services
type memRoles struct {
	repositories.RoleRepository
	byID      map[string]*models.Role
	effective map[string][]string
	overrides map[string][]string
	deleted   []string
	deleteErr error
}

func (r *memRoles) GetByID(_ context.Context, id string) (*models.Role, error) {
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *memRoles) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	delete(r.byID, id)
	return nil
}

func (r *memRoles) EffectivePermissions(_ context.Context, userID string) ([]string, error) {
	return r.effective[userID], nil
}

func (r *memRoles) UserPermissions(_ context.Context, userID string) ([]string, error) {
	return r.overrides[userID], nil
}

func (r *memRoles) SetUserPermissions(_ context.Context, userID string, slugs []string) error {
	if r.overrides == nil {
		r.overrides = map[string][]string{}
	}
	r.overrides[userID] = slugs
	return nil
}

type recordingNotifier struct {
	services.NotificationService
	recipients []string
}

func (n *recordingNotifier) Notify(_ context.Context, userIDs []string, _, _ string, _ *string) {
	n.recipients = append(n.recipients, userIDs...)
}

func staffPrincipal(id string) *models.Principal {
	return &models.Principal{User: &models.User{ID: id, Email: id + "@example.com", RoleName: "user", Status: models.UserActive}}
}

type memCompanies struct {
	repositories.CompanyRepository
	byID  map[string]*models.Company
	files []models.CompanyFile
}

func (r *memCompanies) GetByID(_ context.Context, id string) (*models.Company, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memCompanies) CreateFile(_ context.Context, f *models.CompanyFile) error {
	f.ID = fmt.Sprintf("cf-%d", len(r.files)+1)
	r.files = append(r.files, *f)
	return nil
}

func (r *memCompanies) ListFiles(_ context.Context, companyID string) ([]models.CompanyFile, error) {
	out := []models.CompanyFile{}
	for _, f := range r.files {
		if f.CompanyID == companyID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memBranches struct {
	repositories.BranchRepository
	created    []models.Branch
	lastFilter *models.ListFilter
}

func (r *memBranches) Create(_ context.Context, b *models.Branch) error {
	b.ID = fmt.Sprintf("b-%d", len(r.created)+1)
	r.created = append(r.created, *b)
	return nil
}

func (r *memBranches) List(_ context.Context, filter *models.ListFilter) ([]models.Branch, int, error) {
	r.lastFilter = filter
	return r.created, len(r.created), nil
}

type memDocuments struct {
	docs      []models.ApplicationDocument
	pdfs      []models.ApplicationPDFUpload
	createErr error
}

func (r *memDocuments) Create(_ context.Context, doc *models.ApplicationDocument) error {
	if r.createErr != nil {
		return r.createErr
	}
	doc.ID = fmt.Sprintf("doc-%d", len(r.docs)+1)
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *memDocuments) GetByID(_ context.Context, id string) (*models.ApplicationDocument, error) {
	for _, d := range r.docs {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memDocuments) ListByApplication(_ context.Context, applicationID string) ([]models.ApplicationDocument, error) {
	out := []models.ApplicationDocument{}
	for _, d := range r.docs {
		if d.ApplicationID == applicationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocuments) Delete(_ context.Context, id string) error {
	for i, d := range r.docs {
		if d.ID == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memDocuments) CreatePDFUpload(_ context.Context, upload *models.ApplicationPDFUpload) error {
	if r.createErr != nil {
		return r.createErr
	}
	upload.ID = fmt.Sprintf("pdf-%d", len(r.pdfs)+1)
	r.pdfs = append(r.pdfs, *upload)
	return nil
}

func (r *memDocuments) ListPDFUploads(_ context.Context, applicationID string) ([]models.ApplicationPDFUpload, error) {
	out := []models.ApplicationPDFUpload{}
	for _, u := range r.pdfs {
		if u.ApplicationID == applicationID {
			out = append(out, u)
		}
	}
	return out, nil
}

// visibleApplications returns the applications in byID and ErrNotFound otherwise
type visibleApplications struct {
	services.ApplicationService
	byID map[string]*models.Application
	err  error
}

func (a *visibleApplications) GetApplication(_ context.Context, _ *models.Principal, id string) (*models.Application, error) {
	if a.err != nil {
		return nil, a.err
	}
	app, ok := a.byID[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	cp := *app
	return &cp, nil
}

// memDrive records folder paths and uploads in memory
type memDrive struct {
	services.CloudStorage
	folders   []string
	uploads   map[string][]byte
	templates map[string]*models.DriveItem
	content   map[string]string
	deleted   []string
}

func (d *memDrive) EnsureFolderPath(_ context.Context, _ string, path string) (*models.DriveItem, error) {
	d.folders = append(d.folders, path)
	return &models.DriveItem{ID: "folder:" + path, Name: path, IsFolder: true}, nil
}

func (d *memDrive) UploadFile(_ context.Context, _ string, parentID, name string, content io.Reader, size int64, contentType string) (*models.DriveItem, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	if d.uploads == nil {
		d.uploads = map[string][]byte{}
	}
	d.uploads[name] = data
	return &models.DriveItem{
		ID:       "item:" + name,
		Name:     name,
		ParentID: parentID,
		Size:     size,
		WebURL:   "https://drive.test/" + name,
	}, nil
}

func (d *memDrive) GetItem(_ context.Context, _ string, itemID string) (*models.DriveItem, error) {
	item, ok := d.templates[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (d *memDrive) Download(_ context.Context, _ string, itemID string) (*models.DriveContent, error) {
	body, ok := d.content[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &models.DriveContent{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentType:   "application/octet-stream",
		ContentLength: int64(len(body)),
	}, nil
}

func (d *memDrive) DeleteItem(_ context.Context, _ string, itemID string) error {
	d.deleted = append(d.deleted, itemID)
	return nil
}

type memAuditLogs struct {
	entries    []models.AuditLog
	lastFilter *models.AuditLogFilter
	createErr  error
}

func (r *memAuditLogs) Create(_ context.Context, entry *models.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditLogs) List(_ context.Context, filter *models.AuditLogFilter) ([]models.AuditLog, int, error) {
	r.lastFilter = filter
	out := []models.AuditLog{}
	for _, e := range r.entries {
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.UserID != "" && (e.UserID == nil || *e.UserID != filter.UserID) {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}
