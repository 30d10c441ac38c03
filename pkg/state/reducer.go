package state

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/taleforge/engine/pkg/fuzzy"
	"github.com/taleforge/engine/pkg/tags"
	"github.com/taleforge/engine/pkg/worldtime"
)

// VectorUpdate is one pending semantic-index job produced during
// reduction. The reducer only collects these; an external worker
// executes them after the state is committed.
type VectorUpdate struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Result is the outcome of dispatching one turn's tag stream.
type Result struct {
	State         *GameState     `json:"state"`
	VectorUpdates []VectorUpdate `json:"vector_updates,omitempty"`

	MemoriesAdded  int `json:"memories_added,omitempty"`
	SummariesAdded int `json:"summaries_added,omitempty"`
	MinutesPassed  int `json:"minutes_passed,omitempty"`

	// Skipped holds one reason per individually dropped tag.
	Skipped []string `json:"skipped,omitempty"`
}

// TurnMeta converts the result counters into history metadata for the
// narration turn, so undo can trim what this turn added.
func (res *Result) TurnMeta() *TurnMeta {
	if res.MemoriesAdded == 0 && res.SummariesAdded == 0 && res.MinutesPassed == 0 {
		return nil
	}
	return &TurnMeta{
		MemoriesAdded:  res.MemoriesAdded,
		SummariesAdded: res.SummariesAdded,
		MinutesPassed:  res.MinutesPassed,
	}
}

// Reducer applies a turn's ordered tag stream to a game state
// snapshot. Dispatch is a pure fold: the input state is never
// mutated, and identical inputs produce identical outputs, including
// the vector update list.
type Reducer struct {
	resolver *fuzzy.Resolver
	calendar worldtime.Calendar
	logger   *slog.Logger
}

// NewReducer creates a reducer over the given fuzzy resolution
// tables and calendar.
func NewReducer(resolver *fuzzy.Resolver, calendar worldtime.Calendar, logger *slog.Logger) *Reducer {
	if resolver == nil {
		resolver = fuzzy.NewResolver(fuzzy.DefaultConfig(), nil)
	}
	if calendar.DaysPerMonth <= 0 || calendar.MonthsPerYear <= 0 {
		calendar = worldtime.DefaultCalendar()
	}
	return &Reducer{resolver: resolver, calendar: calendar, logger: logger}
}

// Calendar returns the calendar the reducer advances time against.
func (r *Reducer) Calendar() worldtime.Calendar {
	return r.calendar
}

// Dispatch processes tags in order against a copy of gs and returns
// the new snapshot plus pending background work.
//
// explicitMinutes is the duration extracted from the player's raw
// action text; when positive it overrides every TIME_PASS tag in the
// stream, per the duration precedence rule.
func (r *Reducer) Dispatch(gs *GameState, list []tags.Tag, explicitMinutes int) (*Result, error) {
	next, err := gs.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot game state: %w", err)
	}

	res := &Result{State: next}

	// Suggestions are transient: fully replaced every turn.
	next.Suggestions = nil

	// Duration draws use a resolver seeded from the snapshot, so two
	// dispatches of the same inputs pick the same minute counts even
	// when the configured resolver has no fixed rand source.
	durations := r.resolver.WithRand(turnRand(next))

	for _, t := range list {
		if err := r.apply(next, t, res, explicitMinutes > 0, durations); err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %v", t.Name, err))
			if r.logger != nil {
				r.logger.Debug("Tag skipped", "tag", t.Name, "reason", err)
			}
		}
	}

	if explicitMinutes > 0 {
		r.advanceTime(next, explicitMinutes, res)
	}

	return res, nil
}

// apply routes one tag to its handler. A returned error drops only
// this tag.
func (r *Reducer) apply(gs *GameState, t tags.Tag, res *Result, explicitTime bool, durations *fuzzy.Resolver) error {
	switch t.Name {
	case tags.StatChange:
		return r.handleStatChange(gs, t)
	case tags.PlayerStatInit:
		return r.handleStatInit(gs, t)
	case tags.ItemAdd:
		return r.handleItemAdd(gs, t, res)
	case tags.ItemRemove:
		gs.RemoveItem(t.Str("name"), intOr(t, "quantity", 1))
		return nil
	case tags.StatusAcquired:
		return r.handleStatusAcquired(gs, t)
	case tags.StatusRemoved:
		delete(gs.PlayerStatus, Key(t.Str("name")))
		return nil
	case tags.ReputationChanged:
		return r.handleReputationChanged(gs, t)
	case tags.ReputationTiersSet:
		return r.handleReputationTiers(gs, t)
	case tags.SkillLearned:
		created, err := gs.UpsertSkill(Skill{Name: t.Str("name"), Description: t.Str("description")})
		recordVector(res, created, "skill", t.Str("name"), t.Str("description"))
		return err
	case tags.QuestNew, tags.QuestUpdate:
		created, err := gs.UpsertQuest(Quest{
			Name:        t.Str("name"),
			Description: t.Str("description"),
			Status:      t.Str("status"),
		})
		recordVector(res, created, "quest", t.Str("name"), t.Str("description"))
		return err
	case tags.NPCNew, tags.NPCUpdate:
		created, err := gs.UpsertNPC(NPC{
			Name:        t.Str("name"),
			Description: t.Str("description"),
			Disposition: t.Str("disposition"),
		})
		recordVector(res, created, "npc", t.Str("name"), t.Str("description"))
		return err
	case tags.FactionUpdate:
		created, err := gs.UpsertFaction(Faction{
			Name:        t.Str("name"),
			Description: t.Str("description"),
			Standing:    t.Str("standing"),
		})
		recordVector(res, created, "faction", t.Str("name"), t.Str("description"))
		return err
	case tags.LocationDiscovered:
		created, err := gs.UpsertEntity(Entity{Name: t.Str("name"), Description: t.Str("description"), Type: "location"})
		recordVector(res, created, "location", t.Str("name"), t.Str("description"))
		return err
	case tags.LoreDiscovered:
		created, err := gs.UpsertEntity(Entity{Name: t.Str("name"), Description: t.Str("description"), Type: "lore"})
		recordVector(res, created, "lore", t.Str("name"), t.Str("description"))
		return err
	case tags.CompanionNew:
		created, err := gs.UpsertCompanion(Companion{Name: t.Str("name"), Description: t.Str("description")})
		recordVector(res, created, "companion", t.Str("name"), t.Str("description"))
		return err
	case tags.CompanionRemove:
		delete(gs.Companions, Key(t.Str("name")))
		return nil
	case tags.MemoryAdd:
		content := t.Str("content")
		gs.Memories = append(gs.Memories, content)
		res.MemoriesAdded++
		res.VectorUpdates = append(res.VectorUpdates, VectorUpdate{
			ID:      fmt.Sprintf("memory:%d", len(gs.Memories)-1),
			Type:    "memory",
			Content: content,
		})
		return nil
	case tags.MemoryFlag:
		gs.Summaries = append(gs.Summaries, t.Str("content"))
		res.SummariesAdded++
		return nil
	case tags.Suggestion:
		gs.Suggestions = append(gs.Suggestions, t.Str("text"))
		return nil
	case tags.MilestoneUpdate:
		if gs.Character.Milestones == nil {
			gs.Character.Milestones = make(map[string]Milestone)
		}
		gs.Character.Milestones[Key(t.Str("name"))] = Milestone{Name: t.Str("name"), Rank: t.Str("rank")}
		return nil
	case tags.TimePass:
		if explicitTime {
			// The code-extracted duration wins; the level is advisory.
			return nil
		}
		return r.handleTimePass(gs, t, res, durations)
	case tags.WorldTimeSet:
		return r.handleWorldTimeSet(gs, t)
	default:
		if r.logger != nil {
			r.logger.Warn("Unknown tag ignored", "tag", t.Name)
		}
		return nil
	}
}

func (r *Reducer) handleStatChange(gs *GameState, t tags.Tag) error {
	name := t.Str("name")
	key := Key(name)
	stat, ok := gs.Character.Stats[key]
	if !ok {
		return fmt.Errorf("unknown stat %q", name)
	}

	var delta int
	if amount, ok := t.Int("amount"); ok {
		// Explicit numeric amount beats the qualitative level.
		delta = amount
		if t.Str("operation") == "subtract" && delta > 0 {
			delta = -delta
		}
	} else {
		level := t.Str("level")
		if level == "" {
			return fmt.Errorf("stat %q: no amount or level given", name)
		}
		delta = r.resolver.StatDelta(level, t.Str("operation"), stat.MaxValue)
	}

	stat.Value += delta
	if stat.HasLimit {
		if stat.Value < 0 {
			stat.Value = 0
		}
		if stat.Value > stat.MaxValue {
			stat.Value = stat.MaxValue
		}
	} else {
		// Unlimited stats carry no bar semantics; max tracks value.
		stat.MaxValue = stat.Value
	}
	gs.Character.Stats[key] = stat
	return nil
}

func (r *Reducer) handleStatInit(gs *GameState, t tags.Tag) error {
	name := t.Str("name")
	value, _ := t.Int("value")

	stat := Stat{Name: name, Value: value}
	if maxValue, ok := t.Int("max_value"); ok {
		stat.MaxValue = maxValue
		stat.HasLimit = true
	}
	if hasLimit, ok := t.Bool("has_limit"); ok {
		stat.HasLimit = hasLimit
	}
	if !stat.HasLimit {
		stat.MaxValue = stat.Value
	} else if stat.MaxValue < stat.Value {
		stat.MaxValue = stat.Value
	}

	if gs.Character.Stats == nil {
		gs.Character.Stats = make(map[string]Stat)
	}
	gs.Character.Stats[Key(name)] = stat
	return nil
}

func (r *Reducer) handleItemAdd(gs *GameState, t tags.Tag, res *Result) error {
	name := t.Str("name")
	created, err := gs.AddItem(name, t.Str("description"), intOr(t, "quantity", 1))
	recordVector(res, created, "item", name, t.Str("description"))
	return err
}

func (r *Reducer) handleStatusAcquired(gs *GameState, t tags.Tag) error {
	effectType := strings.ToLower(t.Str("type"))
	if effectType != StatusBuff && effectType != StatusDebuff {
		return fmt.Errorf("status %q: type must be buff or debuff", t.Str("name"))
	}
	gs.UpsertStatus(StatusEffect{
		Name:        t.Str("name"),
		Description: t.Str("description"),
		Type:        effectType,
	})
	return nil
}

func (r *Reducer) handleReputationChanged(gs *GameState, t tags.Tag) error {
	delta, ok := t.Int("score")
	if !ok {
		return fmt.Errorf("reputation change missing score")
	}
	gs.Reputation.Score = ClampReputation(gs.Reputation.Score + delta)
	if tier := TierForScore(gs.Reputation.Score, gs.ReputationTiers); tier != "" {
		gs.Reputation.Tier = tier
	}
	return nil
}

func (r *Reducer) handleReputationTiers(gs *GameState, t tags.Tag) error {
	raw := strings.Split(t.Str("tiers"), "|")
	tiers := make([]string, 0, len(raw))
	for _, tier := range raw {
		if trimmed := strings.TrimSpace(tier); trimmed != "" {
			tiers = append(tiers, trimmed)
		}
	}
	if len(tiers) != ReputationTierCount {
		return fmt.Errorf("expected %d reputation tiers, got %d", ReputationTierCount, len(tiers))
	}
	gs.ReputationTiers = tiers
	gs.Reputation.Tier = TierForScore(gs.Reputation.Score, tiers)
	return nil
}

func (r *Reducer) handleTimePass(gs *GameState, t tags.Tag, res *Result, durations *fuzzy.Resolver) error {
	explicit := fuzzy.ExplicitDuration{}
	explicit.Years, _ = t.Int("years")
	explicit.Months, _ = t.Int("months")
	explicit.Days, _ = t.Int("days")
	explicit.Hours, _ = t.Int("hours")
	explicit.Minutes, _ = t.Int("minutes")

	var minutes int
	if !explicit.IsZero() {
		// Direct units in the tag beat its qualitative level.
		minutes = durations.Minutes(explicit)
	} else {
		level := t.Str("level")
		if level == "" {
			return fmt.Errorf("time pass has neither units nor level")
		}
		minutes = durations.DurationMinutes(level)
	}

	r.advanceTime(gs, minutes, res)
	return nil
}

func (r *Reducer) handleWorldTimeSet(gs *GameState, t tags.Tag) error {
	year, _ := t.Int("year")
	month, _ := t.Int("month")
	day, _ := t.Int("day")
	hour, _ := t.Int("hour")
	minute, _ := t.Int("minute")

	gs.WorldTime = worldtime.Clamp(worldtime.WorldTime{
		Year: year, Month: month, Day: day, Hour: hour, Minute: minute,
	}, r.calendar)
	r.deriveEnvironment(gs)
	return nil
}

// advanceTime moves the clock and rederives season and weather when
// the month changes.
func (r *Reducer) advanceTime(gs *GameState, minutes int, res *Result) {
	if minutes <= 0 {
		return
	}
	before := gs.WorldTime.Month
	gs.WorldTime = worldtime.Advance(gs.WorldTime, minutes, r.calendar)
	res.MinutesPassed += minutes
	if gs.WorldTime.Month != before || gs.Season == "" {
		r.deriveEnvironment(gs)
	}
}

// deriveEnvironment recomputes season and weather from the current
// month. Weather is random but seeded from the session, year and
// month so that dispatch stays a pure function of its inputs.
func (r *Reducer) deriveEnvironment(gs *GameState) {
	arch := worldtime.ResolveArchetype(gs.Genre)
	gs.Season = worldtime.SeasonFor(gs.WorldTime.Month, arch, r.calendar)

	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d:%d", gs.ID, gs.WorldTime.Year, gs.WorldTime.Month)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	gs.Weather = worldtime.WeatherFor(gs.WorldTime.Month, arch, r.calendar, rng)
}

// turnRand seeds the duration draws from the snapshot the same way
// weather is seeded from season inputs.
func turnRand(gs *GameState) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d:%d:%d:%d:%d:%d", gs.ID,
		gs.WorldTime.Year, gs.WorldTime.Month, gs.WorldTime.Day,
		gs.WorldTime.Hour, gs.WorldTime.Minute, len(gs.History))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// recordVector appends an index job for a newly created entity. The
// ID is deterministic so repeat dispatches stay identical.
func recordVector(res *Result, created bool, entityType, name, description string) {
	if !created {
		return
	}
	content := name
	if description != "" {
		content = name + ": " + description
	}
	res.VectorUpdates = append(res.VectorUpdates, VectorUpdate{
		ID:      entityType + ":" + Key(name),
		Type:    entityType,
		Content: content,
	})
}

func intOr(t tags.Tag, key string, fallback int) int {
	if v, ok := t.Int(key); ok {
		return v
	}
	return fallback
}
