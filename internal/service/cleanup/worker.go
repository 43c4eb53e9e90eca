package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionPurger deletes dead session rows older than a number of days.
type SessionPurger interface {
	CleanupOldSessions(ctx context.Context, olderThanDays int) (int64, error)
}

type Worker struct {
	sessions SessionPurger
	interval time.Duration
	keepDays int
	log      zerolog.Logger
}

func NewWorker(sessions SessionPurger, interval time.Duration, keepDays int, logger zerolog.Logger) *Worker {
	return &Worker{
		sessions: sessions,
		interval: interval,
		keepDays: keepDays,
		log:      logger.With().Str("component", "cleanup").Logger(),
	}
}

// Run cleans up once immediately and then every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("background worker started")
	w.runCleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("background worker stopped")
			return
		case <-ticker.C:
			w.runCleanup(ctx)
		}
	}
}

func (w *Worker) runCleanup(ctx context.Context) {
	deleted, err := w.sessions.CleanupOldSessions(ctx, w.keepDays)
	if err != nil {
		w.log.Error().Err(err).Msg("error cleaning up sessions")
		return
	}
	if deleted > 0 {
		w.log.Info().Int64("deleted", deleted).Msg("removed expired sessions")
	}
}
