package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taleforge/engine/pkg/state"
)

func newTestQueue(t *testing.T) *JobQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewJobQueue(rdb)
}

func TestEnqueueDequeueVectorUpdates(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	gameStateID := uuid.New()

	updates := []state.VectorUpdate{
		{ID: "npc:maren", Type: "npc", Content: "Maren: The missing smith"},
		{ID: "location:the cold forge", Type: "location", Content: "The Cold Forge: Dark for the first time"},
	}
	require.NoError(t, q.EnqueueVectorUpdates(ctx, gameStateID, updates))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	job, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, JobVectorIndex, job.Type)
	assert.Equal(t, gameStateID, job.GameStateID)
	assert.Equal(t, updates, job.Updates)
	assert.NotEqual(t, uuid.Nil, job.ID)
}

func TestEnqueueVectorUpdates_EmptyIsNoop(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueVectorUpdates(ctx, uuid.New(), nil))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}

func TestEnqueueCompression(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	gameStateID := uuid.New()

	require.NoError(t, q.EnqueueCompression(ctx, gameStateID, "maren"))

	job, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, JobCompressDossier, job.Type)
	assert.Equal(t, "maren", job.NPCKey)
	assert.Empty(t, job.Updates)
}

func TestDequeueOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueCompression(ctx, uuid.New(), "first"))
	require.NoError(t, q.EnqueueCompression(ctx, uuid.New(), "second"))

	job, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", job.NPCKey)

	job, err = q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", job.NPCKey)
}

func TestBlockingDequeue_Timeout(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.BlockingDequeue(context.Background(), 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestBlockingDequeue_Cancelled(t *testing.T) {
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, err := q.BlockingDequeue(ctx, time.Second)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestRequeue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueCompression(ctx, uuid.New(), "maren"))
	job, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.Requeue(ctx, job))

	again, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, job.ID, again.ID)
}
