package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taleforge/engine/internal/storage"
)

// WorldsHandler lists and reads the authored world templates.
type WorldsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewWorldsHandler(st storage.Storage, logger *slog.Logger) *WorldsHandler {
	return &WorldsHandler{
		storage: st,
		logger:  logger,
	}
}

// ServeHTTP handles world template requests.
// Routes:
// GET /v1/worlds            - List available worlds (name -> filename)
// GET /v1/worlds/{filename} - Read one world template
func (h *WorldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *WorldsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	worlds, err := h.storage.ListWorlds(r.Context())
	if err != nil {
		h.logger.Error("Failed to list worlds", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list worlds")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, worlds)
}

func (h *WorldsHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	// Filenames are flat within the worlds dir.
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid world filename")
		return
	}

	wt, err := h.storage.GetWorld(r.Context(), filename)
	if err != nil {
		h.logger.Warn("Failed to load world", "filename", filename, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, wt)
}
