package state

import "fmt"

// Registry merge rules: every named collection resolves records by
// Key(name). Creation paths require at minimum a name and a
// description; an upsert over an existing record shallow-merges the
// provided fields and leaves the rest untouched. Failures here fail
// the individual tag, never the turn.

// errCreateNeedsDescription is returned when a tag tries to create a
// record without the minimum creation fields.
func errCreateNeedsDescription(collection, name string) error {
	return fmt.Errorf("%s %q: creation requires a description", collection, name)
}

// AddItem merges quantity into an existing item or creates a new one.
// Quantities accumulate; they are never overwritten. Returns true
// when a new record was created.
func (gs *GameState) AddItem(name, description string, quantity int) (bool, error) {
	if quantity <= 0 {
		quantity = 1
	}
	key := Key(name)
	if gs.Inventory == nil {
		gs.Inventory = make(map[string]Item)
	}
	if existing, ok := gs.Inventory[key]; ok {
		existing.Quantity += quantity
		if description != "" {
			existing.Description = description
		}
		gs.Inventory[key] = existing
		return false, nil
	}
	if description == "" {
		return false, errCreateNeedsDescription("item", name)
	}
	gs.Inventory[key] = Item{Name: name, Description: description, Quantity: quantity}
	return true, nil
}

// RemoveItem subtracts quantity from an item. A result of zero or
// less deletes the record entirely; a zero-quantity record is never
// left behind. Removing an unknown item is a no-op.
func (gs *GameState) RemoveItem(name string, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	key := Key(name)
	existing, ok := gs.Inventory[key]
	if !ok {
		return
	}
	existing.Quantity -= quantity
	if existing.Quantity <= 0 {
		delete(gs.Inventory, key)
		return
	}
	gs.Inventory[key] = existing
}

// UpsertStatus adds or updates a status effect.
func (gs *GameState) UpsertStatus(effect StatusEffect) {
	key := Key(effect.Name)
	if gs.PlayerStatus == nil {
		gs.PlayerStatus = make(map[string]StatusEffect)
	}
	if existing, ok := gs.PlayerStatus[key]; ok {
		if effect.Description != "" {
			existing.Description = effect.Description
		}
		if effect.Type != "" {
			existing.Type = effect.Type
		}
		gs.PlayerStatus[key] = existing
		return
	}
	gs.PlayerStatus[key] = effect
}

// UpsertNPC creates or shallow-merges an encountered NPC. Creation
// requires a description. Returns true when a new record was created.
func (gs *GameState) UpsertNPC(npc NPC) (bool, error) {
	key := Key(npc.Name)
	if gs.EncounteredNPCs == nil {
		gs.EncounteredNPCs = make(map[string]NPC)
	}
	if existing, ok := gs.EncounteredNPCs[key]; ok {
		if npc.Description != "" {
			existing.Description = npc.Description
		}
		if npc.Disposition != "" {
			existing.Disposition = npc.Disposition
		}
		gs.EncounteredNPCs[key] = existing
		return false, nil
	}
	if npc.Description == "" {
		return false, errCreateNeedsDescription("npc", npc.Name)
	}
	gs.EncounteredNPCs[key] = npc
	return true, nil
}

// UpsertFaction creates or shallow-merges a faction. Creation
// requires a description.
func (gs *GameState) UpsertFaction(f Faction) (bool, error) {
	key := Key(f.Name)
	if gs.EncounteredFactions == nil {
		gs.EncounteredFactions = make(map[string]Faction)
	}
	if existing, ok := gs.EncounteredFactions[key]; ok {
		if f.Description != "" {
			existing.Description = f.Description
		}
		if f.Standing != "" {
			existing.Standing = f.Standing
		}
		gs.EncounteredFactions[key] = existing
		return false, nil
	}
	if f.Description == "" {
		return false, errCreateNeedsDescription("faction", f.Name)
	}
	gs.EncounteredFactions[key] = f
	return true, nil
}

// UpsertEntity creates or shallow-merges a discovered entity.
func (gs *GameState) UpsertEntity(e Entity) (bool, error) {
	key := Key(e.Name)
	if gs.DiscoveredEntities == nil {
		gs.DiscoveredEntities = make(map[string]Entity)
	}
	if existing, ok := gs.DiscoveredEntities[key]; ok {
		if e.Description != "" {
			existing.Description = e.Description
		}
		if e.Type != "" {
			existing.Type = e.Type
		}
		gs.DiscoveredEntities[key] = existing
		return false, nil
	}
	if e.Description == "" {
		return false, errCreateNeedsDescription("entity", e.Name)
	}
	gs.DiscoveredEntities[key] = e
	return true, nil
}

// UpsertCompanion creates or shallow-merges a companion.
func (gs *GameState) UpsertCompanion(c Companion) (bool, error) {
	key := Key(c.Name)
	if gs.Companions == nil {
		gs.Companions = make(map[string]Companion)
	}
	if existing, ok := gs.Companions[key]; ok {
		if c.Description != "" {
			existing.Description = c.Description
		}
		gs.Companions[key] = existing
		return false, nil
	}
	if c.Description == "" {
		return false, errCreateNeedsDescription("companion", c.Name)
	}
	gs.Companions[key] = c
	return true, nil
}

// UpsertQuest creates or shallow-merges a quest. New quests default
// to active.
func (gs *GameState) UpsertQuest(q Quest) (bool, error) {
	key := Key(q.Name)
	if gs.Quests == nil {
		gs.Quests = make(map[string]Quest)
	}
	if existing, ok := gs.Quests[key]; ok {
		if q.Description != "" {
			existing.Description = q.Description
		}
		if q.Status != "" {
			existing.Status = q.Status
		}
		gs.Quests[key] = existing
		return false, nil
	}
	if q.Description == "" {
		return false, errCreateNeedsDescription("quest", q.Name)
	}
	if q.Status == "" {
		q.Status = QuestActive
	}
	gs.Quests[key] = q
	return true, nil
}

// UpsertSkill creates or shallow-merges a learned skill.
func (gs *GameState) UpsertSkill(s Skill) (bool, error) {
	key := Key(s.Name)
	if gs.Character.Skills == nil {
		gs.Character.Skills = make(map[string]Skill)
	}
	if existing, ok := gs.Character.Skills[key]; ok {
		if s.Description != "" {
			existing.Description = s.Description
		}
		gs.Character.Skills[key] = existing
		return false, nil
	}
	if s.Description == "" {
		return false, errCreateNeedsDescription("skill", s.Name)
	}
	gs.Character.Skills[key] = s
	return true, nil
}

// HardDelete removes an entity from every collection it could appear
// in. Used when the player explicitly discards something.
func (gs *GameState) HardDelete(name string) {
	key := Key(name)
	delete(gs.Inventory, key)
	delete(gs.Character.Skills, key)
	delete(gs.Companions, key)
	delete(gs.Quests, key)
	gs.SoftDelete(name)
}

// SoftDelete removes an entity only from the encyclopedic reference
// collections, leaving inventory and skill copies untouched. Used
// when curating the reference index without affecting possessions.
func (gs *GameState) SoftDelete(name string) {
	key := Key(name)
	delete(gs.EncounteredNPCs, key)
	delete(gs.EncounteredFactions, key)
	delete(gs.DiscoveredEntities, key)
	delete(gs.InitialEntities, key)
}
