package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/world"
)

// Auto saves expire with the session; manual saves are kept until
// explicitly deleted.
const autoSaveTTL = 72 * time.Hour

// RedisStorage implements the Storage interface using Redis for
// gamestates and the filesystem for authored world templates.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Client exposes the underlying Redis client for components that
// share the connection (queues, worker locks).
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func gameStateKey(id uuid.UUID, kind SaveKind) string {
	if kind == SaveManual {
		return "gamestate:manual:" + id.String()
	}
	return "gamestate:" + id.String()
}

// GameState operations (Redis-backed)

func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState, kind SaveKind) error {
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	ttl := autoSaveTTL
	if kind == SaveManual {
		ttl = 0 // no expiry
	}

	if err := r.client.Set(ctx, gameStateKey(id, kind), string(data), ttl).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "uuid", id, "kind", kind, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}

	// A manual save also refreshes the live session copy.
	if kind == SaveManual {
		if err := r.client.Set(ctx, gameStateKey(id, SaveAuto), string(data), autoSaveTTL).Err(); err != nil {
			return fmt.Errorf("failed to refresh session copy: %w", err)
		}
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameStateKey(id, SaveAuto)).Result()
	if err == redis.Nil {
		// Fall back to a manual save that outlived the session.
		data, err = r.client.Get(ctx, gameStateKey(id, SaveManual)).Result()
	}
	if err != nil {
		if err == redis.Nil {
			r.logger.Warn("Gamestate not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		r.logger.Error("Failed to unmarshal gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	keys := []string{gameStateKey(id, SaveAuto), gameStateKey(id, SaveManual)}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// World template operations (filesystem-backed)

func (r *RedisStorage) ListWorlds(ctx context.Context) (map[string]string, error) {
	worldsDir := filepath.Join(r.dataDir, "worlds")
	worlds := make(map[string]string)

	err := filepath.WalkDir(worldsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		w, err := world.Load(path)
		if err != nil {
			r.logger.Warn("Failed to load world file", "path", path, "error", err)
			return nil
		}
		worlds[w.Name] = filepath.Base(path)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk worlds directory", "error", err)
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}

	return worlds, nil
}

func (r *RedisStorage) GetWorld(ctx context.Context, filename string) (*world.World, error) {
	return world.Load(filepath.Join(r.dataDir, "worlds", filename))
}

func (r *RedisStorage) GetWorldByName(ctx context.Context, name string) (*world.World, error) {
	worlds, err := r.ListWorlds(ctx)
	if err != nil {
		return nil, err
	}
	filename, ok := worlds[name]
	if !ok {
		return nil, fmt.Errorf("world not found: %s", name)
	}
	return r.GetWorld(ctx, filename)
}
