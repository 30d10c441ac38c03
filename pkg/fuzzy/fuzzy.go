// Package fuzzy converts the narrator's qualitative magnitudes
// ("high" stat changes, "short" time spans) into concrete numbers.
package fuzzy

import (
	"math/rand"

	"github.com/taleforge/engine/pkg/worldtime"
)

// Magnitude levels for stat changes.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Duration levels for TIME_PASS.
const (
	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

// MinuteRange is an inclusive span of minutes a duration level can
// resolve to.
type MinuteRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Config parameterizes resolution. It is threaded explicitly from the
// world configuration rather than read from globals.
type Config struct {
	// Fractions of a stat's max value per level.
	LowFraction    float64 `json:"low_fraction" yaml:"low_fraction"`
	MediumFraction float64 `json:"medium_fraction" yaml:"medium_fraction"`
	HighFraction   float64 `json:"high_fraction" yaml:"high_fraction"`

	Short  MinuteRange `json:"short" yaml:"short"`
	Medium MinuteRange `json:"medium" yaml:"medium"`
	Long   MinuteRange `json:"long" yaml:"long"`

	Calendar worldtime.Calendar `json:"calendar" yaml:"calendar"`
}

// DefaultConfig returns the stock resolution tables.
func DefaultConfig() Config {
	return Config{
		LowFraction:    0.10,
		MediumFraction: 0.25,
		HighFraction:   0.45,
		Short:          MinuteRange{Min: 5, Max: 20},
		Medium:         MinuteRange{Min: 30, Max: 90},
		Long:           MinuteRange{Min: 180, Max: 480},
		Calendar:       worldtime.DefaultCalendar(),
	}
}

// Resolver turns qualitative levels into numbers. The rand source is
// injectable so tests stay deterministic.
type Resolver struct {
	cfg Config
	rng *rand.Rand
}

// NewResolver builds a Resolver. A nil rng falls back to the global
// rand source.
func NewResolver(cfg Config, rng *rand.Rand) *Resolver {
	if cfg.LowFraction <= 0 {
		cfg = DefaultConfig()
	}
	return &Resolver{cfg: cfg, rng: rng}
}

// WithRand returns a copy of the resolver drawing from rng. A nil rng
// returns the receiver unchanged.
func (r *Resolver) WithRand(rng *rand.Rand) *Resolver {
	if rng == nil {
		return r
	}
	return &Resolver{cfg: r.cfg, rng: rng}
}

// StatDelta computes a signed delta for a stat change. The magnitude
// is a fraction of maxValue per level, never less than 1. Unknown
// levels resolve as medium. The operation is "add" or "subtract".
func (r *Resolver) StatDelta(level, operation string, maxValue int) int {
	frac := r.cfg.MediumFraction
	switch level {
	case LevelLow:
		frac = r.cfg.LowFraction
	case LevelHigh:
		frac = r.cfg.HighFraction
	}

	magnitude := int(float64(maxValue) * frac)
	if magnitude < 1 {
		magnitude = 1
	}
	if operation == "subtract" {
		return -magnitude
	}
	return magnitude
}

// DurationMinutes resolves a duration level to a random minute count
// inside the configured range for that level. Unknown levels resolve
// as medium.
func (r *Resolver) DurationMinutes(level string) int {
	span := r.cfg.Medium
	switch level {
	case DurationShort:
		span = r.cfg.Short
	case DurationLong:
		span = r.cfg.Long
	}
	if span.Max <= span.Min {
		return span.Min
	}
	return span.Min + r.intn(span.Max-span.Min+1)
}

// ExplicitDuration converts directly stated units into minutes.
// Months and years use the configured calendar so that, say, a
// 28-day-month world passes the right amount of time.
type ExplicitDuration struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
}

// IsZero reports whether no explicit unit was given.
func (d ExplicitDuration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0 && d.Hours == 0 && d.Minutes == 0
}

// Minutes flattens the duration using the resolver's calendar.
func (r *Resolver) Minutes(d ExplicitDuration) int {
	cal := r.cfg.Calendar
	if cal.DaysPerMonth <= 0 || cal.MonthsPerYear <= 0 {
		cal = worldtime.DefaultCalendar()
	}
	days := d.Days + d.Months*cal.DaysPerMonth + d.Years*cal.DaysPerMonth*cal.MonthsPerYear
	return d.Minutes + d.Hours*60 + days*24*60
}

func (r *Resolver) intn(n int) int {
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}
