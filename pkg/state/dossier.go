package state

import (
	"slices"
	"strings"
)

// CompressThreshold is the fresh-entry count at which an NPC's
// dossier becomes eligible for background compression.
const CompressThreshold = 8

// knownNPCNames collects every name the bookkeeper scans for:
// encountered NPCs, companions, and NPC-typed initial entities.
func (gs *GameState) knownNPCNames() map[string]string {
	names := make(map[string]string)
	for key, npc := range gs.EncounteredNPCs {
		names[key] = npc.Name
	}
	for key, c := range gs.Companions {
		names[key] = c.Name
	}
	for key, e := range gs.InitialEntities {
		if strings.EqualFold(e.Type, "npc") {
			names[key] = e.Name
		}
	}
	return names
}

// RecordMentions scans the turn pair at the given history indices for
// known NPC names (case-insensitive substring match) and records both
// indices in each mentioned NPC's fresh list. Recording is
// idempotent: an index already present is not duplicated. Dossier
// entries are created lazily on first mention.
func (gs *GameState) RecordMentions(actionIdx, narrationIdx int) {
	var text strings.Builder
	for _, idx := range []int{actionIdx, narrationIdx} {
		if idx >= 0 && idx < len(gs.History) {
			text.WriteString(strings.ToLower(gs.History[idx].Content))
			text.WriteString("\n")
		}
	}
	lowered := text.String()
	if lowered == "" {
		return
	}

	for key, display := range gs.knownNPCNames() {
		if !strings.Contains(lowered, strings.ToLower(display)) {
			continue
		}
		if gs.NPCDossiers == nil {
			gs.NPCDossiers = make(map[string]*Dossier)
		}
		d, ok := gs.NPCDossiers[key]
		if !ok {
			d = &Dossier{}
			gs.NPCDossiers[key] = d
		}
		for _, idx := range []int{actionIdx, narrationIdx} {
			if idx >= 0 && idx < len(gs.History) && !slices.Contains(d.Fresh, idx) {
				d.Fresh = append(d.Fresh, idx)
			}
		}
	}
}

// DossiersNeedingCompression lists NPC keys whose fresh list has
// reached the compression threshold.
func (gs *GameState) DossiersNeedingCompression() []string {
	var keys []string
	for key, d := range gs.NPCDossiers {
		if len(d.Fresh) >= CompressThreshold {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// FreshEntries returns the history contents referenced by an NPC's
// fresh list, in index order. Indices past the current history length
// are skipped (they can appear after an undo raced a compression).
func (gs *GameState) FreshEntries(npcKey string) []string {
	d, ok := gs.NPCDossiers[npcKey]
	if !ok {
		return nil
	}
	indices := slices.Clone(d.Fresh)
	slices.Sort(indices)

	var entries []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(gs.History) {
			entries = append(entries, gs.History[idx].Content)
		}
	}
	return entries
}

// ApplyCompression archives a summary for an NPC and clears its fresh
// list. Returns true when the dossier actually changed; callers use
// the flag rather than comparing snapshots, since the compression
// result may land on a state the next turn has already replaced.
func (gs *GameState) ApplyCompression(npcKey, summary string) bool {
	d, ok := gs.NPCDossiers[npcKey]
	if !ok || len(d.Fresh) == 0 {
		return false
	}
	if summary != "" {
		d.Archived = append(d.Archived, summary)
	}
	d.Fresh = nil
	return true
}
