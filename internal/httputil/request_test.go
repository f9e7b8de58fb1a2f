package httputil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/applications?page=3&limit=abc&search=+acme+&unread=true&neg=-2", nil)

	assert.Equal(t, 3, QueryInt(r, "page"))
	assert.Equal(t, 0, QueryInt(r, "limit"))
	assert.Equal(t, 0, QueryInt(r, "neg"))
	assert.Equal(t, 0, QueryInt(r, "missing"))
	assert.Equal(t, "acme", QueryString(r, "search"))
	assert.True(t, QueryBool(r, "unread"))
	assert.False(t, QueryBool(r, "missing"))
}

func TestQueryDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2026-04-01&to=2026-04-30&at=2026-04-02T10:00:00Z&bad=04/01/2026", nil)

	from, err := QueryDate(r, "from", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := QueryDate(r, "to", true)
	require.NoError(t, err)
	assert.Equal(t, 30, to.Day())
	assert.Equal(t, 23, to.Hour())

	at, err := QueryDate(r, "at", true)
	require.NoError(t, err)
	assert.Equal(t, 10, at.Hour())

	missing, err := QueryDate(r, "missing", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = QueryDate(r, "bad", false)
	assert.Error(t, err)
}
