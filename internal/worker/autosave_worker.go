// Package worker holds the background loops that drain Redis queues into
// PostgreSQL and keep session timing honest.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/repository"
)

// AutosaveWorker consumes the code-persist queue and writes snapshots into
// exam_answers. Run outcomes are written synchronously elsewhere; this loop
// only carries draft code.
type AutosaveWorker struct {
	answers repository.AnswerStore
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(answers repository.AnswerStore, rdb *redis.Client) *AutosaveWorker {
	return &AutosaveWorker{
		answers: answers,
		rdb:     rdb,
		log:     log.With().Str("component", "autosave_worker").Logger(),
	}
}

type codePayload struct {
	SessionID     uuid.UUID `json:"exam_session_id"`
	QuestionIndex int       `json:"question_index"`
	Code          string    `json:"code"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistCodeQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(3 * time.Second)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var payload codePayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
		return
	}

	if err := w.persist(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID.String()).
			Int("question_index", payload.QuestionIndex).
			Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistCodeQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AutosaveWorker) persist(ctx context.Context, p *codePayload) error {
	err := w.answers.SaveCode(ctx, p.SessionID, p.QuestionIndex, p.Code)
	if errors.Is(err, repository.ErrNotFound) {
		// Session deleted meanwhile, nothing to save onto. Drop it.
		w.log.Warn().Str("session_id", p.SessionID.String()).Msg("Dropping snapshot for missing answer row")
		return nil
	}
	return err
}

// drain flushes whatever is still queued during shutdown, bounded so a dead
// database cannot hold the process open.
func (w *AutosaveWorker) drain(ctx context.Context) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistCodeQueue).Result()
		if err != nil {
			return // queue empty or Redis gone
		}
		var payload codePayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			continue
		}
		if err := w.persist(ctx, &payload); err != nil {
			w.rdb.RPush(ctx, config.WorkerKey.PersistCodeQueue, result)
			return
		}
	}
}
