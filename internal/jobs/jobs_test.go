package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPurger struct {
	before time.Time
	n      int64
	err    error
}

func (p *stubPurger) ClearExpiredResetTokens(_ context.Context, before time.Time) (int64, error) {
	p.before = before
	return p.n, p.err
}

type stubPruner struct {
	calls int
}

func (p *stubPruner) Cleanup(time.Time) int {
	p.calls++
	return 3
}

func TestScheduler_EveryRejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler(discardLogger())

	err := s.Every(0, "noop", func(context.Context) error { return nil })
	assert.Error(t, err)

	require.NoError(t, s.Every(time.Minute, "noop", func(context.Context) error { return nil }))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_WrapPassesDeadline(t *testing.T) {
	s := NewScheduler(discardLogger())

	var hadDeadline bool
	s.wrap("deadline-check", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})()
	assert.True(t, hadDeadline)

	// Failures are logged and counted, never propagated
	assert.NotPanics(t, s.wrap("failing", func(context.Context) error { return errors.New("boom") }))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(discardLogger())
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestPurgeResetTokens(t *testing.T) {
	p := &stubPurger{n: 2}
	require.NoError(t, PurgeResetTokens(p, discardLogger())(context.Background()))
	assert.WithinDuration(t, time.Now(), p.before, time.Second)

	p.err = errors.New("db down")
	assert.Error(t, PurgeResetTokens(p, discardLogger())(context.Background()))
}

func TestPruneRateLimiters(t *testing.T) {
	p := &stubPruner{}
	require.NoError(t, PruneRateLimiters(p, discardLogger())(context.Background()))
	assert.Equal(t, 1, p.calls)
}
