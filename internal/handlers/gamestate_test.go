package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taleforge/engine/internal/storage"
	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/world"
)

func testWorld() *world.World {
	return &world.World{
		Name:    "Emberfall",
		Genre:   "dark fantasy",
		Rating:  "PG-13",
		Opening: "The gates creak open at dusk.",
	}
}

func newGameStateHandler() (*GameStateHandler, *storage.MockStorage) {
	st := storage.NewMockStorage()
	st.AddWorld("emberfall.yaml", testWorld())
	return NewGameStateHandler(st, slog.Default()), st
}

func seedSession(t *testing.T, st *storage.MockStorage) *state.GameState {
	t.Helper()
	gs := testWorld().NewGameState()
	require.NoError(t, st.SaveGameState(context.Background(), gs.ID, gs, storage.SaveAuto))
	return gs
}

func TestCreateGameState(t *testing.T) {
	h, st := newGameStateHandler()

	body, _ := json.Marshal(CreateGameStateRequest{World: "Emberfall"})
	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var gs state.GameState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&gs))
	assert.NotEqual(t, uuid.Nil, gs.ID)
	assert.Equal(t, "Emberfall", gs.WorldName)
	require.Len(t, gs.History, 1)
	assert.Equal(t, "The gates creak open at dusk.", gs.History[0].Content)

	saved, err := st.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.NotNil(t, saved)
}

func TestCreateGameState_Errors(t *testing.T) {
	h, _ := newGameStateHandler()

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{not json", http.StatusBadRequest},
		{"missing world", http.MethodPost, "{}", http.StatusBadRequest},
		{"unknown world", http.MethodPost, `{"world":"Nowhere"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/gamestate", bytes.NewBufferString(tc.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestReadGameState(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	req := httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+gs.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var loaded state.GameState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loaded))
	assert.Equal(t, gs.ID, loaded.ID)
}

func TestReadGameState_NotFound(t *testing.T) {
	h, _ := newGameStateHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadGameState_BadID(t *testing.T) {
	h, _ := newGameStateHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/gamestate/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteGameState(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	req := httptest.NewRequest(http.MethodDelete, "/v1/gamestate/"+gs.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	loaded, err := st.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUndo(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)
	gs.AppendTurnPair("look", "The square is empty.", nil)
	require.NoError(t, st.SaveGameState(context.Background(), gs.ID, gs, storage.SaveAuto))

	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate/"+gs.ID.String()+"/undo", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var after state.GameState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&after))
	assert.Len(t, after.History, 1, "only the opening remains")
}

func TestUndo_NothingToUndo(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate/"+gs.ID.String()+"/undo", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRestart(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)
	gs.AppendTurnPair("look", "The square is empty.", nil)
	gs.Memories = []string{"stale memory"}
	require.NoError(t, st.SaveGameState(context.Background(), gs.ID, gs, storage.SaveAuto))

	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate/"+gs.ID.String()+"/restart", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var fresh state.GameState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fresh))
	assert.Equal(t, gs.ID, fresh.ID, "restart keeps the session ID")
	assert.Len(t, fresh.History, 1)
	assert.Empty(t, fresh.Memories)
}

func TestManualSave(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate/"+gs.ID.String()+"/save", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, st.SaveKinds, storage.SaveManual)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "saved", resp["status"])
}

func TestEntityDelete_FullDiscard(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)
	gs.Inventory = map[string]state.Item{
		"cracked lantern": {Name: "Cracked Lantern", Description: "Barely holds a flame", Quantity: 1},
	}
	gs.DiscoveredEntities = map[string]state.Entity{
		"cracked lantern": {Name: "Cracked Lantern", Description: "Barely holds a flame", Type: "item"},
	}
	require.NoError(t, st.SaveGameState(context.Background(), gs.ID, gs, storage.SaveAuto))

	req := httptest.NewRequest(http.MethodDelete,
		"/v1/gamestate/"+gs.ID.String()+"/entity/Cracked%20Lantern", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	saved, err := st.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.NotContains(t, saved.Inventory, "cracked lantern")
	assert.NotContains(t, saved.DiscoveredEntities, "cracked lantern")
}

func TestEntityDelete_ReferenceScopeKeepsPossessions(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)
	gs.Inventory = map[string]state.Item{
		"signet ring": {Name: "Signet Ring", Description: "A noble's seal", Quantity: 1},
	}
	gs.EncounteredNPCs = map[string]state.NPC{
		"signet ring": {Name: "Signet Ring", Description: "Misfiled as a person"},
	}
	require.NoError(t, st.SaveGameState(context.Background(), gs.ID, gs, storage.SaveAuto))

	req := httptest.NewRequest(http.MethodDelete,
		"/v1/gamestate/"+gs.ID.String()+"/entity/Signet%20Ring?scope=reference", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	saved, err := st.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Contains(t, saved.Inventory, "signet ring")
	assert.NotContains(t, saved.EncounteredNPCs, "signet ring")
}

func TestEntityDelete_Errors(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"empty name", "/v1/gamestate/" + gs.ID.String() + "/entity/", http.StatusBadRequest},
		{"unknown session", "/v1/gamestate/" + uuid.NewString() + "/entity/lantern", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, tc.target, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestUnknownSubroute(t *testing.T) {
	h, st := newGameStateHandler()
	gs := seedSession(t, st)

	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate/"+gs.ID.String()+"/teleport", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
