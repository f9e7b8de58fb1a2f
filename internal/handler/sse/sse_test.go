package sse

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_EventFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := Open(rec)
	require.NoError(t, err)

	require.NoError(t, s.Event("unread", map[string]int{"count": 3}))
	require.NoError(t, s.WriteKeepAlive())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "id: 1\nevent: unread\ndata: {\"count\":3}\n\n: keepalive\n\n", rec.Body.String())
}

type countingWriter struct {
	calls  atomic.Int32
	failAt int32
}

func (w *countingWriter) WriteKeepAlive() error {
	if w.calls.Add(1) >= w.failAt {
		return errors.New("closed")
	}
	return nil
}

func TestHeartbeat_EndsOnWriteError(t *testing.T) {
	w := &countingWriter{failAt: 2}
	hb := NewHeartbeat(time.Millisecond)
	hb.Run(w, slog.New(slog.NewTextHandler(io.Discard, nil)))

	select {
	case <-hb.Dead():
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not end after write error")
	}
	assert.Equal(t, int32(2), w.calls.Load())
	hb.Stop()
	hb.Stop()
}

func TestHeartbeat_Stop(t *testing.T) {
	w := &countingWriter{failAt: 1 << 30}
	hb := NewHeartbeat(time.Hour)
	hb.Run(w, slog.New(slog.NewTextHandler(io.Discard, nil)))
	hb.Stop()

	select {
	case <-hb.Dead():
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not end after Stop")
	}
	assert.Zero(t, w.calls.Load())
}
