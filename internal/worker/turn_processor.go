// Package worker contains the turn pipeline and the background job
// worker. The pipeline is synchronous: narrate, parse directives,
// reconcile state, persist. Vector indexing and dossier compression
// run out of band via the job queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taleforge/engine/internal/queue"
	"github.com/taleforge/engine/internal/services"
	"github.com/taleforge/engine/internal/storage"
	"github.com/taleforge/engine/pkg/chat"
	"github.com/taleforge/engine/pkg/fuzzy"
	"github.com/taleforge/engine/pkg/prompts"
	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/tags"
	"github.com/taleforge/engine/pkg/textfilter"
	"github.com/taleforge/engine/pkg/world"
	"github.com/taleforge/engine/pkg/worldtime"
)

// TurnProcessor runs a player action through the full turn pipeline.
type TurnProcessor struct {
	storage storage.Storage
	llm     services.LLMService
	queue   *queue.JobQueue
	filter  *textfilter.Filter
	log     *slog.Logger
}

// NewTurnProcessor wires the pipeline's dependencies. The queue may
// be nil, in which case background jobs are skipped.
func NewTurnProcessor(st storage.Storage, llm services.LLMService, q *queue.JobQueue, log *slog.Logger) *TurnProcessor {
	return &TurnProcessor{
		storage: st,
		llm:     llm,
		queue:   q,
		filter:  textfilter.New(),
		log:     log,
	}
}

// reducerFor builds the reducer from the world's calendar and fuzzy
// tables. A missing world, or a world that declares neither, falls
// back to the defaults.
func (p *TurnProcessor) reducerFor(w *world.World) *state.Reducer {
	cfg := fuzzy.DefaultConfig()
	cal := worldtime.DefaultCalendar()
	if w != nil {
		if w.Fuzzy.LowFraction > 0 {
			cfg = w.Fuzzy
		}
		if w.Calendar.DaysPerMonth > 0 && w.Calendar.MonthsPerYear > 0 {
			cal = w.Calendar
		}
	}
	// Explicit month and year durations flatten against the same
	// calendar the clock advances on.
	cfg.Calendar = cal
	return state.NewReducer(fuzzy.NewResolver(cfg, nil), cal, p.log)
}

// ProcessTurn executes one turn: it narrates the action, extracts the
// embedded directives, reconciles them into a new state snapshot, and
// persists the result. The updated state is saved before background
// jobs are queued, so a queue failure never loses a turn.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gs, err := p.storage.LoadGameState(ctx, req.GameStateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, storage.ErrGameStateNotFound
	}

	world, err := p.storage.GetWorldByName(ctx, gs.WorldName)
	if err != nil {
		p.log.Warn("World template not found, continuing without style guide",
			"world", gs.WorldName, "game_state_id", req.GameStateID.String())
	}

	// Explicit durations in the action text take precedence over
	// whatever TIME_PASS directives the narrator emits.
	explicitMinutes, hasExplicit := fuzzy.EstimateFromText(req.Action)

	builder := prompts.New().WithGameState(gs).WithAction(req.Action)
	if world != nil && world.StyleGuide != "" {
		builder = builder.WithStyleGuide(world.StyleGuide)
	}
	if hasExplicit {
		builder = builder.WithDurationHint(explicitMinutes)
	}
	messages, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := p.llm.GenerateTurn(ctx, messages)
	if err != nil {
		if services.IsContentPolicyRejection(err) {
			// State is untouched on a policy rejection. The caller
			// decides how to phrase the refusal.
			return nil, err
		}
		return nil, fmt.Errorf("failed to generate narration: %w", err)
	}

	parsed := tags.Extract(raw)
	for _, d := range parsed.Diagnostics {
		p.log.Debug("Directive diagnostic",
			"game_state_id", req.GameStateID.String(),
			"line", d.Line, "reason", d.Reason)
	}

	result, err := p.reducerFor(world).Dispatch(gs, parsed.Tags, explicitMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile state: %w", err)
	}
	next := result.State

	narration := parsed.Narration
	if world != nil && textfilter.RatingRequiresFilter(world.Rating) {
		narration = p.filter.Apply(narration)
	}

	actionIdx, narrationIdx := next.AppendTurnPair(req.Action, narration, result.TurnMeta())
	next.RecordMentions(actionIdx, narrationIdx)

	if err := p.storage.SaveGameState(ctx, req.GameStateID, next, storage.SaveAuto); err != nil {
		// Auto-save failure is not fatal to the turn. The response
		// still reflects the reconciled state.
		p.log.Error("Failed to auto-save game state",
			"error", err, "game_state_id", req.GameStateID.String())
	}

	p.enqueueBackgroundJobs(ctx, req.GameStateID, next, result.VectorUpdates)

	return &chat.TurnResponse{
		GameStateID: req.GameStateID,
		Narration:   narration,
		Suggestions: next.Suggestions,
	}, nil
}

// enqueueBackgroundJobs is fire and forget: failures are logged and
// the turn still succeeds.
func (p *TurnProcessor) enqueueBackgroundJobs(ctx context.Context, id uuid.UUID, gs *state.GameState, updates []state.VectorUpdate) {
	if p.queue == nil {
		return
	}

	if err := p.queue.EnqueueVectorUpdates(ctx, id, updates); err != nil {
		p.log.Error("Failed to enqueue vector updates",
			"error", err, "game_state_id", id.String())
	}

	for _, npcKey := range gs.DossiersNeedingCompression() {
		if err := p.queue.EnqueueCompression(ctx, id, npcKey); err != nil {
			p.log.Error("Failed to enqueue dossier compression",
				"error", err, "game_state_id", id.String(), "npc", npcKey)
		}
	}
}

// CompressDossier summarizes an NPC's fresh dossier entries into one
// archived line and persists the result. A dossier that no longer
// needs compression is a no-op.
func (p *TurnProcessor) CompressDossier(ctx context.Context, id uuid.UUID, npcKey string) error {
	gs, err := p.storage.LoadGameState(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return storage.ErrGameStateNotFound
	}

	entries := gs.FreshEntries(npcKey)
	if len(entries) < state.CompressThreshold {
		return nil
	}

	summary, err := p.llm.Summarize(ctx, npcKey, entries)
	if err != nil {
		return fmt.Errorf("failed to summarize dossier: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("dossier summary for %q was empty", npcKey)
	}

	if !gs.ApplyCompression(npcKey, summary) {
		return nil
	}

	if err := p.storage.SaveGameState(ctx, id, gs, storage.SaveAuto); err != nil {
		return fmt.Errorf("failed to save compressed dossier: %w", err)
	}

	p.log.Info("Compressed NPC dossier",
		"game_state_id", id.String(), "npc", npcKey, "entries", len(entries))
	return nil
}
