package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/metrics"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AnswerWriter persists an answer state captured at a given instant.
type AnswerWriter interface {
	SaveAnswersAt(ctx context.Context, id uuid.UUID, userID int, state model.AnswerState, savedAt time.Time) (bool, error)
}

// Queue is the part of the Redis client the worker pops from and requeues to.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// AutosaveWorker consumes persist_answers_queue and writes answer states to PostgreSQL.
type AutosaveWorker struct {
	store      AnswerWriter
	rdb        Queue
	queue      string
	retryDelay time.Duration
	log        zerolog.Logger
	done       chan struct{}
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(store AnswerWriter, rdb Queue, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		store:      store,
		rdb:        rdb,
		queue:      config.WorkerKey.PersistAnswersQueue,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "autosave_worker").Logger(),
		done:       make(chan struct{}),
	}
}

type draftPayload struct {
	QuestionnaireID string            `json:"questionnaire_id"`
	UserID          int               `json:"user_id"`
	State           model.AnswerState `json:"state"`
	SavedAt         time.Time         `json:"saved_at"`
}

// Start begins the worker loop. Call in a goroutine; Done is closed once the
// queue has been drained after ctx is cancelled.
func (w *AutosaveWorker) Start(ctx context.Context) {
	defer close(w.done)
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

// Done is closed when Start has returned.
func (w *AutosaveWorker) Done() <-chan struct{} {
	return w.done
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or the 1s timeout elapses.
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, []byte(result[1])); err != nil {
		if errors.Is(err, errMalformedPayload) {
			w.log.Error().Err(err).Msg("Dropping malformed payload")
			return
		}
		w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Persist error, requeued")
		w.requeue(result[1])
		w.wait(ctx)
	}
}

// requeue puts a payload back at the tail of the queue. It must not use the
// worker context: the item is already popped and would be lost on shutdown.
func (w *AutosaveWorker) requeue(payload string) {
	if err := w.rdb.RPush(context.Background(), w.queue, payload).Err(); err != nil {
		w.log.Error().Err(err).Msg("Requeue failed, draft lost")
	}
}

// wait pauses for retryDelay, or until ctx is cancelled.
func (w *AutosaveWorker) wait(ctx context.Context) {
	t := time.NewTimer(w.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var errMalformedPayload = errors.New("malformed autosave payload")

func (w *AutosaveWorker) persist(ctx context.Context, raw []byte) error {
	var p draftPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	id, err := uuid.Parse(p.QuestionnaireID)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedPayload, err)
	}

	applied, err := w.store.SaveAnswersAt(ctx, id, p.UserID, p.State, p.SavedAt)
	if err != nil {
		metrics.RecordAutosave("failed")
		return err
	}
	if applied {
		metrics.RecordAutosave("saved")
	} else {
		metrics.RecordAutosave("stale")
		w.log.Debug().
			Str("questionnaire_id", p.QuestionnaireID).
			Time("saved_at", p.SavedAt).
			Msg("Skipped stale or orphaned draft")
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}

		if err := w.persist(ctx, []byte(result)); err != nil {
			if errors.Is(err, errMalformedPayload) {
				w.log.Error().Err(err).Msg("Drain dropped malformed payload")
				continue
			}
			w.log.Error().Err(err).Msg("Drain persist error")
			w.requeue(result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
