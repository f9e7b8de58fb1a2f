package jobs

import (
	"context"
	"log/slog"
	"time"
)

// ResetTokenPurger clears expired password reset tokens
type ResetTokenPurger interface {
	ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}

// LimiterPruner drops idle per-client rate limiters
type LimiterPruner interface {
	Cleanup(now time.Time) int
}

// PurgeResetTokens returns a job that clears reset tokens past their expiry
func PurgeResetTokens(users ResetTokenPurger, logger *slog.Logger) Func {
	return func(ctx context.Context) error {
		n, err := users.ClearExpiredResetTokens(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("expired reset tokens cleared", "count", n)
		}
		return nil
	}
}

// PruneRateLimiters returns a job that forgets clients idle past the limiter window
func PruneRateLimiters(limiter LimiterPruner, logger *slog.Logger) Func {
	return func(ctx context.Context) error {
		if n := limiter.Cleanup(time.Now()); n > 0 {
			logger.Debug("rate limiters pruned", "count", n)
		}
		return nil
	}
}
