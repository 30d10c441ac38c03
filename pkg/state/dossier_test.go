package state

import (
	"fmt"
	"testing"
)

func dossierState() *GameState {
	gs := NewGameState()
	gs.EncounteredNPCs = map[string]NPC{
		"maren": {Name: "Maren", Description: "The missing smith"},
	}
	gs.Companions = map[string]Companion{
		"brell": {Name: "Brell", Description: "Nervous gate guard"},
	}
	gs.InitialEntities = map[string]Entity{
		"assessor vale": {Name: "Assessor Vale", Type: "npc"},
		"the undercity": {Name: "The Undercity", Type: "location"},
	}
	return gs
}

func TestRecordMentions(t *testing.T) {
	gs := dossierState()
	actionIdx, narrationIdx := gs.AppendTurnPair(
		"ask about MAREN",
		"Brell shifts his weight. Maren has not been seen in weeks.",
		nil,
	)

	gs.RecordMentions(actionIdx, narrationIdx)

	// Maren appears in both entries, Brell only in the narration, but
	// both indices are recorded for every mentioned NPC.
	for _, key := range []string{"maren", "brell"} {
		d := gs.NPCDossiers[key]
		if d == nil {
			t.Fatalf("Expected a dossier for %q", key)
		}
		if len(d.Fresh) != 2 {
			t.Errorf("Expected both indices for %q, got %v", key, d.Fresh)
		}
	}

	// Locations never get dossiers, and unmentioned NPCs stay absent.
	if _, ok := gs.NPCDossiers["the undercity"]; ok {
		t.Error("Locations must not get dossiers")
	}
	if _, ok := gs.NPCDossiers["assessor vale"]; ok {
		t.Error("Unmentioned NPC must not get a dossier")
	}
}

func TestRecordMentions_Idempotent(t *testing.T) {
	gs := dossierState()
	actionIdx, narrationIdx := gs.AppendTurnPair("greet Maren", "Maren nods.", nil)

	gs.RecordMentions(actionIdx, narrationIdx)
	gs.RecordMentions(actionIdx, narrationIdx)

	if fresh := gs.NPCDossiers["maren"].Fresh; len(fresh) != 2 {
		t.Errorf("Expected no duplicate indices, got %v", fresh)
	}
}

func TestRecordMentions_InitialEntityNPC(t *testing.T) {
	gs := dossierState()
	actionIdx, narrationIdx := gs.AppendTurnPair(
		"find the assessor",
		"Assessor Vale reviews your papers without looking up.",
		nil,
	)

	gs.RecordMentions(actionIdx, narrationIdx)

	if _, ok := gs.NPCDossiers["assessor vale"]; !ok {
		t.Error("NPC-typed initial entities should be tracked")
	}
}

func TestDossiersNeedingCompression(t *testing.T) {
	gs := dossierState()
	gs.NPCDossiers = map[string]*Dossier{
		"maren": {Fresh: []int{0, 1, 2, 3, 4, 5, 6, 7}},
		"brell": {Fresh: []int{0, 1}},
		"vale":  {Fresh: []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
	}

	keys := gs.DossiersNeedingCompression()
	if len(keys) != 2 || keys[0] != "maren" || keys[1] != "vale" {
		t.Errorf("Expected [maren vale], got %v", keys)
	}
}

func TestFreshEntries(t *testing.T) {
	gs := dossierState()
	for i := 0; i < 3; i++ {
		gs.AppendTurnPair(fmt.Sprintf("action %d", i), fmt.Sprintf("narration %d", i), nil)
	}

	// Out of order, with one index past the history end.
	gs.NPCDossiers = map[string]*Dossier{
		"maren": {Fresh: []int{5, 1, 99, 0}},
	}

	entries := gs.FreshEntries("maren")
	want := []string{"action 0", "narration 0", "narration 2"}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %v", len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, want[i], entries[i])
		}
	}

	if got := gs.FreshEntries("nobody"); got != nil {
		t.Errorf("Expected nil for unknown NPC, got %v", got)
	}
}

func TestApplyCompression(t *testing.T) {
	gs := dossierState()
	gs.NPCDossiers = map[string]*Dossier{
		"maren": {Fresh: []int{0, 1, 2}, Archived: []string{"earlier summary"}},
	}

	if !gs.ApplyCompression("maren", "Maren has gone missing from the forge.") {
		t.Error("Expected compression to report a change")
	}

	d := gs.NPCDossiers["maren"]
	if len(d.Fresh) != 0 {
		t.Errorf("Expected fresh list cleared, got %v", d.Fresh)
	}
	if len(d.Archived) != 2 {
		t.Errorf("Expected 2 archived summaries, got %v", d.Archived)
	}

	// A second apply has nothing fresh to clear.
	if gs.ApplyCompression("maren", "another summary") {
		t.Error("Expected no change with an empty fresh list")
	}
	if gs.ApplyCompression("nobody", "summary") {
		t.Error("Expected no change for an unknown NPC")
	}
}

func TestApplyCompression_EmptySummary(t *testing.T) {
	gs := dossierState()
	gs.NPCDossiers = map[string]*Dossier{
		"maren": {Fresh: []int{0, 1}},
	}

	if !gs.ApplyCompression("maren", "") {
		t.Error("Expected clearing fresh entries to count as a change")
	}
	if len(gs.NPCDossiers["maren"].Archived) != 0 {
		t.Error("Empty summary must not be archived")
	}
}
