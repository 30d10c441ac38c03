package tags

import (
	"fmt"
	"strings"
)

// Tag names emitted by the narrator. The reducer has one handler per name.
const (
	StatChange         = "STAT_CHANGE"
	ItemAdd            = "ITEM_ADD"
	ItemRemove         = "ITEM_REMOVE"
	StatusAcquired     = "STATUS_ACQUIRED"
	StatusRemoved      = "STATUS_REMOVED"
	ReputationChanged  = "REPUTATION_CHANGED"
	SkillLearned       = "SKILL_LEARNED"
	QuestNew           = "QUEST_NEW"
	QuestUpdate        = "QUEST_UPDATE"
	NPCNew             = "NPC_NEW"
	NPCUpdate          = "NPC_UPDATE"
	FactionUpdate      = "FACTION_UPDATE"
	LocationDiscovered = "LOCATION_DISCOVERED"
	LoreDiscovered     = "LORE_DISCOVERED"
	CompanionNew       = "COMPANION_NEW"
	CompanionRemove    = "COMPANION_REMOVE"
	MemoryAdd          = "MEMORY_ADD"
	MemoryFlag         = "MEMORY_FLAG"
	Suggestion         = "SUGGESTION"
	TimePass           = "TIME_PASS"
	MilestoneUpdate    = "MILESTONE_UPDATE"
	PlayerStatInit     = "PLAYER_STAT_INIT"
	WorldTimeSet       = "WORLD_TIME_SET"
	ReputationTiersSet = "REPUTATION_TIERS_SET"
)

// Tag is a single parsed directive: a recognized name plus its
// key/value parameters. Values are string, float64 or bool depending
// on how the parameter was written.
type Tag struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// Str returns the named parameter as a trimmed string.
// Returns "" if absent or not a string.
func (t Tag) Str(key string) string {
	if v, ok := t.Params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Num returns the named parameter as a number.
func (t Tag) Num(key string) (float64, bool) {
	v, ok := t.Params[key].(float64)
	return v, ok
}

// Int returns the named parameter as a truncated int.
func (t Tag) Int(key string) (int, bool) {
	v, ok := t.Params[key].(float64)
	return int(v), ok
}

// Bool returns the named parameter as a bool.
func (t Tag) Bool(key string) (bool, bool) {
	v, ok := t.Params[key].(bool)
	return v, ok
}

// Has reports whether the parameter is present at all.
func (t Tag) Has(key string) bool {
	_, ok := t.Params[key]
	return ok
}

// paramKind constrains the type a required parameter must carry.
type paramKind int

const (
	kindString paramKind = iota
	kindNumber
	kindAny
)

// requiredParams maps each recognized tag name to the parameters the
// extractor must see before the tag is allowed through. A tag missing
// one of these is dropped with a diagnostic, never fatal to the turn.
var requiredParams = map[string][]struct {
	key  string
	kind paramKind
}{
	StatChange:         {{"name", kindString}, {"operation", kindString}},
	ItemAdd:            {{"name", kindString}},
	ItemRemove:         {{"name", kindString}},
	StatusAcquired:     {{"name", kindString}, {"type", kindString}},
	StatusRemoved:      {{"name", kindString}},
	ReputationChanged:  {{"score", kindNumber}},
	SkillLearned:       {{"name", kindString}},
	QuestNew:           {{"name", kindString}},
	QuestUpdate:        {{"name", kindString}},
	NPCNew:             {{"name", kindString}},
	NPCUpdate:          {{"name", kindString}},
	FactionUpdate:      {{"name", kindString}},
	LocationDiscovered: {{"name", kindString}},
	LoreDiscovered:     {{"name", kindString}},
	CompanionNew:       {{"name", kindString}},
	CompanionRemove:    {{"name", kindString}},
	MemoryAdd:          {{"content", kindString}},
	MemoryFlag:         {{"content", kindString}},
	Suggestion:         {{"text", kindString}},
	TimePass:           {},
	MilestoneUpdate:    {{"name", kindString}, {"rank", kindString}},
	PlayerStatInit:     {{"name", kindString}, {"value", kindNumber}},
	WorldTimeSet:       {{"year", kindNumber}, {"month", kindNumber}, {"day", kindNumber}},
	ReputationTiersSet: {{"tiers", kindString}},
}

// Recognized reports whether name is part of the tag vocabulary.
func Recognized(name string) bool {
	_, ok := requiredParams[name]
	return ok
}

// validate checks required parameters for a parsed tag.
func validate(t Tag) error {
	reqs, ok := requiredParams[t.Name]
	if !ok {
		return fmt.Errorf("unrecognized tag %q", t.Name)
	}
	for _, req := range reqs {
		v, present := t.Params[req.key]
		if !present {
			return fmt.Errorf("%s: missing required param %q", t.Name, req.key)
		}
		switch req.kind {
		case kindString:
			s, ok := v.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s: param %q must be a non-empty string", t.Name, req.key)
			}
		case kindNumber:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("%s: param %q must be a number", t.Name, req.key)
			}
		}
	}
	return nil
}
