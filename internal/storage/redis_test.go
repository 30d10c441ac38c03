package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taleforge/engine/pkg/state"
)

const testWorldYAML = `
name: "Emberfall"
genre: "dark fantasy"
rating: "PG-13"
opening: "The gates creak open at dusk."
`

func newTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	dataDir := t.TempDir()
	worldsDir := filepath.Join(dataDir, "worlds")
	require.NoError(t, os.MkdirAll(worldsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(worldsDir, "emberfall.yaml"), []byte(testWorldYAML), 0644))

	st := NewRedisStorage(mr.Addr(), dataDir, slog.Default())
	t.Cleanup(func() { st.Close() })
	return st, mr
}

func TestPing(t *testing.T) {
	st, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.Ping(ctx))

	mr.Close()
	assert.Error(t, st.Ping(ctx))
}

func TestSaveAndLoadGameState(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	gs.WorldName = "Emberfall"
	gs.Memories = []string{"the forge went cold"}

	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveAuto))

	loaded, err := st.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, "Emberfall", loaded.WorldName)
	assert.Equal(t, gs.Memories, loaded.Memories)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestLoadGameState_NotFound(t *testing.T) {
	st, _ := newTestStorage(t)

	loaded, err := st.LoadGameState(context.Background(), state.NewGameState().ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveGameState_TTLByKind(t *testing.T) {
	st, mr := newTestStorage(t)
	ctx := context.Background()
	gs := state.NewGameState()

	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveAuto))
	autoKey := "gamestate:" + gs.ID.String()
	assert.Greater(t, mr.TTL(autoKey), time.Duration(0), "auto saves expire")

	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveManual))
	manualKey := "gamestate:manual:" + gs.ID.String()
	assert.True(t, mr.Exists(manualKey))
	assert.Zero(t, mr.TTL(manualKey), "manual saves never expire")
}

func TestLoadGameState_ManualFallback(t *testing.T) {
	st, mr := newTestStorage(t)
	ctx := context.Background()
	gs := state.NewGameState()
	gs.WorldName = "Emberfall"

	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveManual))

	// Simulate the session copy expiring while the manual save stays.
	mr.Del("gamestate:" + gs.ID.String())

	loaded, err := st.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Emberfall", loaded.WorldName)
}

func TestDeleteGameState(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()
	gs := state.NewGameState()

	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveAuto))
	require.NoError(t, st.SaveGameState(ctx, gs.ID, gs, SaveManual))
	require.NoError(t, st.DeleteGameState(ctx, gs.ID))

	loaded, err := st.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestListWorlds(t *testing.T) {
	st, _ := newTestStorage(t)

	worlds, err := st.ListWorlds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Emberfall": "emberfall.yaml"}, worlds)
}

func TestGetWorldByName(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	w, err := st.GetWorldByName(ctx, "Emberfall")
	require.NoError(t, err)
	assert.Equal(t, "dark fantasy", w.Genre)

	_, err = st.GetWorldByName(ctx, "Nowhere")
	assert.ErrorContains(t, err, "world not found")
}
