package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taleforge/engine/internal/services"
	"github.com/taleforge/engine/internal/storage"
	"github.com/taleforge/engine/internal/worker"
	"github.com/taleforge/engine/pkg/chat"
)

// TurnHandler runs player actions through the turn pipeline.
type TurnHandler struct {
	processor *worker.TurnProcessor
	logger    *slog.Logger
}

func NewTurnHandler(processor *worker.TurnProcessor, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/turn.
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.processor.ProcessTurn(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrGameStateNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		case services.IsContentPolicyRejection(err):
			// The turn was refused by the provider. Nothing was
			// applied or saved.
			h.logger.Warn("Turn rejected by content policy",
				"game_state_id", req.GameStateID.String())
			writeError(w, h.logger, http.StatusUnprocessableEntity,
				"The narrator declined this action. Try rephrasing it.")
		default:
			h.logger.Error("Failed to process turn",
				"error", err, "game_state_id", req.GameStateID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
