package middleware

import (
	"log/slog"
	"time"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// Logging creates middleware that logs every dispatched update with its
// outcome and duration. Committed updates log at Info, deduplicated and
// suppressed ones at Debug, failures at Error.
func Logging(l *slog.Logger) statekit.Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(s *statekit.Store, next statekit.Apply) statekit.Apply {
		return func(update func(any) any) (statekit.Outcome, error) {
			start := time.Now()
			out, err := next(update)
			elapsed := time.Since(start)

			switch {
			case err != nil:
				l.Error("statekit: update failed", "error", err, "duration", elapsed)
			case out.Committed:
				l.Info("statekit: update committed", "duration", elapsed)
			case out.Suppressed:
				l.Debug("statekit: update suppressed", "reason", out.Reason, "duration", elapsed)
			default:
				l.Debug("statekit: update deduplicated", "duration", elapsed)
			}
			return out, err
		}
	}
}
