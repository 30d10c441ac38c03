package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taleforge/engine/internal/queue"
	"github.com/taleforge/engine/internal/services"
)

const (
	dequeueTimeout = 5 * time.Second
	gameLockTTL    = 30 * time.Second
)

// Worker consumes background jobs from the queue: vector-index
// batches and dossier compression. A per-game lock keeps two workers
// from writing the same gamestate concurrently.
type Worker struct {
	id          string
	queue       *queue.JobQueue
	processor   *TurnProcessor
	indexer     services.Indexer
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a worker. An empty workerID gets a random suffix so
// lock ownership stays distinguishable across replicas.
func New(q *queue.JobQueue, processor *TurnProcessor, indexer services.Indexer, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       q,
		processor:   processor,
		indexer:     indexer,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing jobs from the queue. It blocks until Stop
// is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextJob(); err != nil {
				w.log.Error("Error processing job", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

func (w *Worker) processNextJob() error {
	// Block waiting for the next job (timeout so shutdown is checked)
	ctx, cancel := context.WithTimeout(w.ctx, dequeueTimeout+time.Second)
	defer cancel()

	job, err := w.queue.BlockingDequeue(ctx, dequeueTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue job: %w", err)
	}
	if job == nil {
		// Queue empty or timeout, which is normal
		return nil
	}

	w.log.Info("Received job from queue",
		"worker_id", w.id,
		"job_id", job.ID.String(),
		"type", job.Type,
		"game_state_id", job.GameStateID.String(),
	)

	// Index jobs never write the gamestate, so they skip the lock.
	if job.Type == queue.JobVectorIndex {
		return w.processIndexJob(job)
	}

	locked, err := w.acquireGameLock(job.GameStateID)
	if err != nil {
		return fmt.Errorf("failed to acquire game lock: %w", err)
	}
	if !locked {
		// Another worker holds this gamestate. Re-queue at the end
		// and move on.
		w.log.Info("Game already locked, re-queueing job",
			"worker_id", w.id,
			"job_id", job.ID.String(),
			"game_state_id", job.GameStateID.String(),
		)
		if err := w.queue.Requeue(w.ctx, job); err != nil {
			return fmt.Errorf("failed to re-queue job: %w", err)
		}
		return nil
	}

	defer w.releaseGameLock(job.GameStateID)
	return w.processJob(job)
}

func (w *Worker) processIndexJob(job *queue.Job) error {
	start := time.Now()
	if err := w.indexer.IndexUpdates(w.ctx, job.Updates); err != nil {
		return fmt.Errorf("failed to index updates: %w", err)
	}
	w.log.Info("Vector updates indexed",
		"worker_id", w.id,
		"job_id", job.ID.String(),
		"count", len(job.Updates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *Worker) processJob(job *queue.Job) error {
	start := time.Now()

	switch job.Type {
	case queue.JobCompressDossier:
		if err := w.processor.CompressDossier(w.ctx, job.GameStateID, job.NPCKey); err != nil {
			return fmt.Errorf("failed to compress dossier: %w", err)
		}
		w.log.Info("Dossier job processed",
			"worker_id", w.id,
			"job_id", job.ID.String(),
			"npc", job.NPCKey,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	return nil
}

// acquireGameLock attempts to acquire a lock for a game.
// Returns true if the lock was acquired, false if already locked.
func (w *Worker) acquireGameLock(gameStateID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("game-lock:%s", gameStateID.String())

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, gameLockTTL).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseGameLock releases the lock for a game.
func (w *Worker) releaseGameLock(gameStateID uuid.UUID) {
	lockKey := fmt.Sprintf("game-lock:%s", gameStateID.String())

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release game lock", "error", err, "game_state_id", gameStateID.String())
	}
}
