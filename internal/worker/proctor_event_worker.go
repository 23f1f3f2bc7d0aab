package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
)

const (
	// proctorBatchSize flushes once this many events are buffered.
	proctorBatchSize = 100
	// proctorFlushInterval flushes a partial buffer after this long.
	proctorFlushInterval = 5 * time.Second
	// proctorPollTimeout bounds one BLPop wait.
	proctorPollTimeout = time.Second
)

// ProctorEventWorker batches raw proctoring telemetry from Redis into
// proctor_events. Telemetry is best-effort context around the synchronous
// violation trail, so throughput beats per-row latency here.
type ProctorEventWorker struct {
	violations repository.ViolationStore
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewProctorEventWorker creates a new ProctorEventWorker.
func NewProctorEventWorker(violations repository.ViolationStore, rdb *redis.Client) *ProctorEventWorker {
	return &ProctorEventWorker{
		violations: violations,
		rdb:        rdb,
		log:        log.With().Str("component", "proctor_event_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ProctorEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]model.ProctorEvent, 0, proctorBatchSize)
	lastFlush := time.Now()

	for {
		// Flush on size or age, whichever comes first.
		if len(buffer) >= proctorBatchSize || (len(buffer) > 0 && time.Since(lastFlush) >= proctorFlushInterval) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			if len(buffer) > 0 {
				w.flushSafe(context.Background(), buffer)
			}
			w.log.Info().Msg("Worker stopped")
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, proctorPollTimeout, config.WorkerKey.PersistProctorEventsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // queue empty, loop back to the flush timer
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var event model.ProctorEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}
		buffer = append(buffer, event)
	}
}

// flushSafe attempts a bulk COPY, then row-by-row recovery, then requeue.
func (w *ProctorEventWorker) flushSafe(ctx context.Context, batch []model.ProctorEvent) {
	if err := w.violations.BatchInsertProctorEvents(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Telemetry batch persisted")
}

func (w *ProctorEventWorker) fallbackInsert(ctx context.Context, batch []model.ProctorEvent) {
	var requeue []model.ProctorEvent
	for i := range batch {
		if err := w.violations.InsertProctorEvent(ctx, &batch[i]); err != nil {
			w.log.Error().Err(err).
				Str("session_id", batch[i].SessionID.String()).
				Msg("Insert failed, requeueing")
			requeue = append(requeue, batch[i])
		}
	}
	if len(requeue) > 0 {
		w.requeue(ctx, requeue)
	}
}

func (w *ProctorEventWorker) requeue(ctx context.Context, items []model.ProctorEvent) {
	pipe := w.rdb.Pipeline()
	for i := range items {
		payload, err := json.Marshal(items[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.PersistProctorEventsQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("Requeue failed, telemetry lost")
	}
}
