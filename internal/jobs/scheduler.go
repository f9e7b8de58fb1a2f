package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"titledesk/internal/metrics"
)

// DefaultJobTimeout bounds a single run of a scheduled job
const DefaultJobTimeout = 2 * time.Minute

// Func is a unit of periodic maintenance work
type Func func(ctx context.Context) error

// Scheduler runs maintenance jobs on fixed intervals.
// A run that is still in progress causes the next tick of the same job to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: DefaultJobTimeout,
		logger:  logger,
	}
}

// Every registers fn to run once per interval
func (s *Scheduler) Every(interval time.Duration, name string, fn Func) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.wrap(name, fn)); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.logger.Info("job scheduled", "job", name, "interval", interval.String())
	return nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) wrap(name string, fn Func) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			metrics.RecordPeripheralFailure("job_" + name)
			s.logger.Error("job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Debug("job finished", "job", name, "duration", time.Since(start))
	}
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
