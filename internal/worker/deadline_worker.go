package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/service"
)

// sweepInterval is how often the deadline sweep runs. A session can outlive
// its deadline by at most this long.
const sweepInterval = 30 * time.Second

// DeadlineWorker is the recovery path for sessions whose browser never
// closed them out: it periodically force-submits expired sessions and
// disqualifies any stuck at zero hearts.
type DeadlineWorker struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(sessions *service.SessionService) *DeadlineWorker {
	return &DeadlineWorker{
		sessions: sessions,
		log:      log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the periodic sweep. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	submitted, disqualified, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep failed")
		return
	}
	if submitted > 0 || disqualified > 0 {
		w.log.Info().
			Int("submitted", submitted).
			Int("disqualified", disqualified).
			Msg("Stale sessions closed out")
	}
}
