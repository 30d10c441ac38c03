// Package queue carries the engine's background work over Redis
// lists: vector-index updates for entities touched during a turn, and
// NPC dossier compression. Both are fire-and-forget from the turn
// loop's point of view.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taleforge/engine/pkg/state"
)

// JobType discriminates queued jobs.
type JobType string

const (
	JobVectorIndex     JobType = "vector_index"
	JobCompressDossier JobType = "compress_dossier"
)

// jobsKey is the single global work list all workers consume.
const jobsKey = "jobs"

// Job is one unit of background work.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Type        JobType   `json:"type"`
	GameStateID uuid.UUID `json:"gamestate_id"`

	// Updates is set for vector-index jobs.
	Updates []state.VectorUpdate `json:"updates,omitempty"`

	// NPCKey is set for dossier compression jobs.
	NPCKey string `json:"npc_key,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobQueue manages the background work list.
type JobQueue struct {
	rdb *redis.Client
}

// NewJobQueue wraps an existing Redis client.
func NewJobQueue(rdb *redis.Client) *JobQueue {
	return &JobQueue{rdb: rdb}
}

// EnqueueVectorUpdates queues one indexing job for a turn's updates.
// Empty update lists are not queued.
func (q *JobQueue) EnqueueVectorUpdates(ctx context.Context, gameStateID uuid.UUID, updates []state.VectorUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return q.enqueue(ctx, &Job{
		ID:          uuid.New(),
		Type:        JobVectorIndex,
		GameStateID: gameStateID,
		Updates:     updates,
		EnqueuedAt:  time.Now(),
	})
}

// EnqueueCompression queues a dossier compression job for one NPC.
func (q *JobQueue) EnqueueCompression(ctx context.Context, gameStateID uuid.UUID, npcKey string) error {
	return q.enqueue(ctx, &Job{
		ID:          uuid.New(),
		Type:        JobCompressDossier,
		GameStateID: gameStateID,
		NPCKey:      npcKey,
		EnqueuedAt:  time.Now(),
	})
}

func (q *JobQueue) enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}
	if err := q.rdb.RPush(ctx, jobsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Requeue pushes a job back for another worker. Used when the game's
// lock is held.
func (q *JobQueue) Requeue(ctx context.Context, job *Job) error {
	return q.enqueue(ctx, job)
}

// BlockingDequeue waits up to timeout for the next job. Returns
// (nil, nil) on timeout or cancellation, which callers treat as an
// empty queue.
func (q *JobQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.rdb.BLPop(ctx, timeout, jobsKey).Result()
	if err != nil {
		if err == redis.Nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of queued jobs.
func (q *JobQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.rdb.LLen(ctx, jobsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
