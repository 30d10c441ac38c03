package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taleforge/engine/internal/storage"
)

type GameStateHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewGameStateHandler(st storage.Storage, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		storage: st,
		logger:  logger,
	}
}

// CreateGameStateRequest defines the request body for creating a new
// game session.
type CreateGameStateRequest struct {
	World string `json:"world"` // Required: world template name
}

// ServeHTTP handles HTTP requests for game state operations.
// Routes:
// POST /v1/gamestate              - Create new game state from a world
// GET /v1/gamestate/{id}          - Read game state by ID
// DELETE /v1/gamestate/{id}       - Delete game state by ID
// POST /v1/gamestate/{id}/undo    - Remove the most recent turn pair
// POST /v1/gamestate/{id}/restart - Reset to the world's opening state
// POST /v1/gamestate/{id}/save    - Persist a manual save
// DELETE /v1/gamestate/{id}/entity/{name} - Discard a named record
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/gamestate"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	gameStateID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game state ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
		return
	}

	var action string
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, gameStateID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameStateID)
	case action == "undo" && r.Method == http.MethodPost:
		h.handleUndo(w, r, gameStateID)
	case action == "restart" && r.Method == http.MethodPost:
		h.handleRestart(w, r, gameStateID)
	case action == "save" && r.Method == http.MethodPost:
		h.handleManualSave(w, r, gameStateID)
	case action == "entity" && r.Method == http.MethodDelete:
		h.handleEntityDelete(w, r, gameStateID, "")
	case strings.HasPrefix(action, "entity/") && r.Method == http.MethodDelete:
		h.handleEntityDelete(w, r, gameStateID, strings.TrimPrefix(action, "entity/"))
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed for this endpoint")
	}
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game state")

	var req CreateGameStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.World == "" {
		writeError(w, h.logger, http.StatusBadRequest, "world field is required")
		return
	}

	wt, err := h.storage.GetWorldByName(r.Context(), req.World)
	if err != nil {
		h.logger.Warn("Failed to load world template", "world", req.World, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to load world: "+err.Error())
		return
	}

	gs := wt.NewGameState()

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs, storage.SaveAuto); err != nil {
		h.logger.Error("Failed to save new game state", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game state")
		return
	}

	h.logger.Debug("Game state created", "id", gs.ID.String(), "world", wt.Name)
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), gameStateID); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}

	h.logger.Debug("Game state deleted", "id", gameStateID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleUndo(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state for undo", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	if !gs.UndoLastTurn() {
		writeError(w, h.logger, http.StatusConflict, "No turns to undo")
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gameStateID, gs, storage.SaveAuto); err != nil {
		h.logger.Error("Failed to save game state after undo", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleRestart(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state for restart", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	wt, err := h.storage.GetWorldByName(r.Context(), gs.WorldName)
	if err != nil {
		h.logger.Error("Failed to load world for restart", "error", err, "world", gs.WorldName)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world template")
		return
	}

	fresh := wt.NewGameState()
	fresh.ID = gameStateID
	if err := h.storage.SaveGameState(r.Context(), gameStateID, fresh, storage.SaveAuto); err != nil {
		h.logger.Error("Failed to save restarted game state", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	h.logger.Debug("Game state restarted", "id", gameStateID.String(), "world", wt.Name)
	writeJSON(w, h.logger, http.StatusOK, fresh)
}

// handleEntityDelete curates the session registries. The default is a
// full discard from every collection; scope=reference removes only the
// encyclopedic copies and leaves possessions alone.
func (h *GameStateHandler) handleEntityDelete(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID, name string) {
	if strings.TrimSpace(name) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Entity name is required")
		return
	}

	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state for entity delete", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	if r.URL.Query().Get("scope") == "reference" {
		gs.SoftDelete(name)
	} else {
		gs.HardDelete(name)
	}

	if err := h.storage.SaveGameState(r.Context(), gameStateID, gs, storage.SaveAuto); err != nil {
		h.logger.Error("Failed to save game state after entity delete", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	h.logger.Debug("Entity record discarded",
		"id", gameStateID.String(), "entity", name, "scope", r.URL.Query().Get("scope"))
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleManualSave(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state for save", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gameStateID, gs, storage.SaveManual); err != nil {
		h.logger.Error("Failed to write manual save", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	h.logger.Debug("Manual save written", "id", gameStateID.String())
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "saved"})
}
