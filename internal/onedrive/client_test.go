package onedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
)

const (
	testToken   = "delegated-token"
	driveItems  = "/drives/drive-1/items/"
	sessionPath = "/session-1"
)

// fakeGraph is a minimal in-memory drive serving the endpoints the client
// uses. Upload sessions live on a second host like they do on SharePoint.
type fakeGraph struct {
	mu        sync.Mutex
	t         *testing.T
	byPath    map[string]map[string]interface{}
	byID      map[string]string
	nextID    int
	created   []string
	chunks    []string
	content   map[string][]byte
	uploadURL string
}

func newFakeGraph(t *testing.T) (*fakeGraph, *httptest.Server) {
	g := &fakeGraph{
		t:       t,
		byPath:  map[string]map[string]interface{}{},
		byID:    map[string]string{},
		content: map[string][]byte{},
	}
	uploads := httptest.NewServer(http.HandlerFunc(g.serveUpload))
	t.Cleanup(uploads.Close)
	g.uploadURL = uploads.URL + sessionPath

	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *fakeGraph) add(path string, folder bool) map[string]interface{} {
	g.nextID++
	id := fmt.Sprintf("item-%d", g.nextID)
	item := map[string]interface{}{
		"id":     id,
		"name":   path[strings.LastIndex(path, "/")+1:],
		"webUrl": "https://drive.example/" + path,
	}
	if folder {
		item["folder"] = map[string]interface{}{}
	} else {
		item["file"] = map[string]interface{}{"mimeType": "application/pdf"}
	}
	g.byPath[path] = item
	g.byID[id] = path
	return item
}

// parentPath resolves "root" or an item ID to a path prefix ending in "/"
func (g *fakeGraph) parentPath(ref string) string {
	if ref == "root" {
		return ""
	}
	return g.byID[ref] + "/"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func graphError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}

func notFound(w http.ResponseWriter) {
	graphError(w, http.StatusNotFound, "itemNotFound", "The resource could not be found.")
}

func uploadSession(nextRange string) map[string]interface{} {
	return map[string]interface{}{
		"expirationDateTime": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"nextExpectedRanges": []string{nextRange},
	}
}

func (g *fakeGraph) serveUpload(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	assert.Empty(g.t, r.Header.Get("Authorization"), "upload URL must not carry the token")
	if r.Method != http.MethodPut || r.URL.Path != sessionPath {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, _ := io.ReadAll(r.Body)
	rng := r.Header.Get("Content-Range")
	g.chunks = append(g.chunks, rng)
	var start, end, total int
	fmt.Sscanf(rng, "bytes %d-%d/%d", &start, &end, &total)
	assert.Equal(g.t, end-start+1, len(body))

	if end+1 < total {
		writeJSON(w, http.StatusAccepted, uploadSession(fmt.Sprintf("%d-", end+1)))
		return
	}
	writeJSON(w, http.StatusCreated, g.add("big.bin", false))
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		graphError(w, http.StatusUnauthorized, "InvalidAuthenticationToken", "bad token")
		return
	}

	p := r.URL.Path
	if r.Method == http.MethodGet && p == "/me/drive" {
		writeJSON(w, http.StatusOK, map[string]string{"id": "drive-1"})
		return
	}
	if !strings.HasPrefix(p, driveItems) {
		g.t.Errorf("unexpected request %s %s", r.Method, p)
		w.WriteHeader(http.StatusTeapot)
		return
	}
	ref := strings.TrimPrefix(p, driveItems)

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(ref, "root:/") && strings.HasSuffix(ref, ":"):
		item, ok := g.byPath[strings.TrimSuffix(strings.TrimPrefix(ref, "root:/"), ":")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case r.Method == http.MethodPost && strings.HasSuffix(ref, "/children"):
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(g.t, "fail", body["@microsoft.graph.conflictBehavior"])
		full := g.parentPath(strings.TrimSuffix(ref, "/children")) + body["name"].(string)
		g.created = append(g.created, full)
		writeJSON(w, http.StatusCreated, g.add(full, true))

	case r.Method == http.MethodPut && strings.HasSuffix(ref, ":/content"):
		body, _ := io.ReadAll(r.Body)
		target := strings.TrimSuffix(ref, ":/content")
		parent, name, _ := strings.Cut(target, ":/")
		g.content[g.parentPath(parent)+name] = body
		writeJSON(w, http.StatusCreated, g.add(g.parentPath(parent)+name, false))

	case r.Method == http.MethodPost && strings.HasSuffix(ref, ":/createUploadSession"):
		session := uploadSession("0-")
		session["uploadUrl"] = g.uploadURL
		writeJSON(w, http.StatusOK, session)

	case r.Method == http.MethodPost && strings.HasSuffix(ref, "/copy"):
		w.Header().Set("Location", "https://monitor.example/job/1")
		w.WriteHeader(http.StatusAccepted)

	case r.Method == http.MethodGet && strings.HasSuffix(ref, "/content"):
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello drive"))

	case r.Method == http.MethodPost && (strings.HasSuffix(ref, "/checkout") || strings.HasSuffix(ref, "/checkin")):
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodDelete && ref == "missing":
		notFound(w)

	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet:
		path, ok := g.byID[ref]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, g.byPath[path])

	default:
		g.t.Errorf("unexpected request %s %s", r.Method, p)
		w.WriteHeader(http.StatusTeapot)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("not a url", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestGetItem(t *testing.T) {
	g, srv := newFakeGraph(t)
	c := newTestClient(t, srv)
	seeded := g.add("Templates/deed.docx", false)

	item, err := c.GetItem(context.Background(), testToken, seeded["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "deed.docx", item.Name)
	assert.Equal(t, "application/pdf", item.MimeType)
	assert.False(t, item.IsFolder)

	_, err = c.GetItem(context.Background(), testToken, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "itemNotFound", gerr.Code)
}

func TestMissingTokenNeverCallsGraph(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	_, err := c.GetItem(context.Background(), "", "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBadTokenMapsToUnauthorized(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	_, err := c.GetItem(context.Background(), "expired", "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureFolderPath_CreatesMissingSegments(t *testing.T) {
	g, srv := newFakeGraph(t)
	c := newTestClient(t, srv)
	g.add("Applications", true)

	item, err := c.EnsureFolderPath(context.Background(), testToken, "Applications/FY 2025-2026/10-October")
	require.NoError(t, err)
	assert.Equal(t, "10-October", item.Name)
	assert.True(t, item.IsFolder)
	assert.Equal(t, []string{
		"Applications/FY 2025-2026",
		"Applications/FY 2025-2026/10-October",
	}, g.created)

	// Second call finds everything in place
	g.created = nil
	_, err = c.EnsureFolderPath(context.Background(), testToken, "Applications/FY 2025-2026/10-October")
	require.NoError(t, err)
	assert.Empty(t, g.created)
}

func TestEnsureFolderPath_FileInTheWay(t *testing.T) {
	g, srv := newFakeGraph(t)
	c := newTestClient(t, srv)
	g.add("Applications", false)

	_, err := c.EnsureFolderPath(context.Background(), testToken, "Applications/x")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUploadFile_Simple(t *testing.T) {
	g, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	data := []byte("%PDF-1.7 tiny")
	item, err := c.UploadFile(context.Background(), testToken, "", "small.pdf", bytes.NewReader(data), int64(len(data)), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "small.pdf", item.Name)
	assert.Equal(t, data, g.content["small.pdf"])
	assert.Empty(t, g.chunks)
}

func TestUploadFile_ShortBody(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	_, err := c.UploadFile(context.Background(), testToken, "", "small.pdf", strings.NewReader("abc"), 10, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadFile_Session(t *testing.T) {
	g, srv := newFakeGraph(t)
	c := newTestClient(t, srv)
	g.add("Applications", true)

	size := 2*uploadChunkSize + 10
	data := bytes.Repeat([]byte{'x'}, size)

	// A plain reader gets spooled so the session can seek
	item, err := c.UploadFile(context.Background(), testToken, "item-1", "big.bin", io.MultiReader(bytes.NewReader(data)), int64(size), "")
	require.NoError(t, err)
	assert.Equal(t, "big.bin", item.Name)

	require.Len(t, g.chunks, 3)
	assert.Equal(t, fmt.Sprintf("bytes 0-%d/%d", uploadChunkSize-1, size), g.chunks[0])
	assert.Equal(t, fmt.Sprintf("bytes %d-%d/%d", 2*uploadChunkSize, size-1, size), g.chunks[2])
}

func TestUploadFile_RequiresName(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	_, err := c.UploadFile(context.Background(), testToken, "", "  ", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCopyItem_ReturnsMonitorURL(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	monitor, err := c.CopyItem(context.Background(), testToken, "item-1", "folder-2", "copy.docx")
	require.NoError(t, err)
	assert.Equal(t, "https://monitor.example/job/1", monitor)
}

func TestDownload(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)

	content, err := c.Download(context.Background(), testToken, "item-1")
	require.NoError(t, err)
	defer content.Body.Close()

	body, err := io.ReadAll(content.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello drive", string(body))
	assert.Equal(t, "text/plain", content.ContentType)
}

func TestLockUnlockDelete(t *testing.T) {
	_, srv := newFakeGraph(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Checkout(ctx, testToken, "item-1"))
	require.NoError(t, c.Checkin(ctx, testToken, "item-1", "done"))
	require.NoError(t, c.DeleteItem(ctx, testToken, "item-1"))

	err := c.DeleteItem(ctx, testToken, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestThrottlingMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		graphError(w, http.StatusTooManyRequests, "activityLimitReached", "slow down")
	}))
	t.Cleanup(srv.Close)

	_, err := newTestClient(t, srv).GetItem(context.Background(), testToken, "x")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestDelegatedTokenProvider_OnlyForGraphHost(t *testing.T) {
	p := &delegatedTokenProvider{graphHost: "graph.test"}
	ctx := context.WithValue(context.Background(), tokenKey{}, testToken)

	token, err := p.GetAuthorizationToken(ctx, mustURL(t, "https://graph.test/v1.0/me/drive"), nil)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)

	token, err = p.GetAuthorizationToken(ctx, mustURL(t, "https://tenant.sharepoint.test/upload"), nil)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
