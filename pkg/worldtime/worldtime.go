// Package worldtime tracks the in-game calendar and the environment
// values derived from it (season, weather).
package worldtime

import (
	"math/rand"
	"strings"
)

// WorldTime is the in-game clock. Hour is 0-23, minute 0-59; day and
// month are 1-based within the configured calendar.
type WorldTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Calendar describes how overflow cascades during time advancement.
// The zero value is not usable; call DefaultCalendar or load one from
// world configuration.
type Calendar struct {
	DaysPerMonth  int `json:"days_per_month" yaml:"days_per_month"`
	MonthsPerYear int `json:"months_per_year" yaml:"months_per_year"`
}

// DefaultCalendar is a standard-ish calendar: 12 months of 30 days.
func DefaultCalendar() Calendar {
	return Calendar{DaysPerMonth: 30, MonthsPerYear: 12}
}

// Advance returns wt moved forward by the given number of minutes,
// cascading minute -> hour -> day -> month -> year overflow under cal.
// Negative deltas are ignored; world time never moves backward except
// on restart or undo, which replace the whole struct.
func Advance(wt WorldTime, minutes int, cal Calendar) WorldTime {
	if minutes <= 0 {
		return wt
	}
	if cal.DaysPerMonth <= 0 || cal.MonthsPerYear <= 0 {
		cal = DefaultCalendar()
	}

	wt.Minute += minutes
	wt.Hour += wt.Minute / 60
	wt.Minute %= 60
	wt.Day += wt.Hour / 24
	wt.Hour %= 24

	// Day and month are 1-based, so normalize to 0-based for the
	// division and back.
	d := wt.Day - 1
	wt.Month += d / cal.DaysPerMonth
	wt.Day = d%cal.DaysPerMonth + 1

	m := wt.Month - 1
	wt.Year += m / cal.MonthsPerYear
	wt.Month = m%cal.MonthsPerYear + 1

	return wt
}

// Clamp forces wt inside calendar bounds. Used when the narrator sets
// the clock directly and may produce out-of-range fields.
func Clamp(wt WorldTime, cal Calendar) WorldTime {
	if cal.DaysPerMonth <= 0 || cal.MonthsPerYear <= 0 {
		cal = DefaultCalendar()
	}
	if wt.Month < 1 {
		wt.Month = 1
	} else if wt.Month > cal.MonthsPerYear {
		wt.Month = cal.MonthsPerYear
	}
	if wt.Day < 1 {
		wt.Day = 1
	} else if wt.Day > cal.DaysPerMonth {
		wt.Day = cal.DaysPerMonth
	}
	if wt.Hour < 0 {
		wt.Hour = 0
	} else if wt.Hour > 23 {
		wt.Hour = 23
	}
	if wt.Minute < 0 {
		wt.Minute = 0
	} else if wt.Minute > 59 {
		wt.Minute = 59
	}
	return wt
}

// Archetype is a coarse genre category inferred from the free-text
// genre string of a world. It drives season naming and weather tables.
type Archetype string

const (
	ArchetypeFantasy  Archetype = "fantasy"
	ArchetypeSciFi    Archetype = "scifi"
	ArchetypeHorror   Archetype = "horror"
	ArchetypeWestern  Archetype = "western"
	ArchetypePostApoc Archetype = "postapoc"
	ArchetypeModern   Archetype = "modern"
)

// archetypeKeywords is checked in order; the first keyword found in
// the lowered genre string wins.
var archetypeKeywords = []struct {
	arch     Archetype
	keywords []string
}{
	{ArchetypeSciFi, []string{"sci-fi", "scifi", "science fiction", "space", "cyberpunk", "galactic", "starship"}},
	{ArchetypeHorror, []string{"horror", "gothic", "lovecraft", "eldritch", "haunted"}},
	{ArchetypeWestern, []string{"western", "frontier", "wild west", "cowboy"}},
	{ArchetypePostApoc, []string{"post-apocalyptic", "postapocalyptic", "wasteland", "apocalypse"}},
	{ArchetypeFantasy, []string{"fantasy", "medieval", "sword", "sorcery", "dragon", "kingdom"}},
}

// ResolveArchetype infers an archetype from a free-text genre string.
// Unmatched genres fall back to modern.
func ResolveArchetype(genre string) Archetype {
	lowered := strings.ToLower(genre)
	for _, entry := range archetypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.arch
			}
		}
	}
	return ArchetypeModern
}

// seasons in month order. Each archetype splits the year into four
// equal spans; only the labels differ.
var seasonLabels = map[Archetype][4]string{
	ArchetypeFantasy:  {"Thawtide", "Highsun", "Harvestfall", "Deepwinter"},
	ArchetypeSciFi:    {"First Quarter", "Second Quarter", "Third Quarter", "Fourth Quarter"},
	ArchetypeHorror:   {"The Waking", "The Long Light", "The Withering", "The Dark"},
	ArchetypeWestern:  {"Spring", "High Summer", "Harvest", "Winter"},
	ArchetypePostApoc: {"Melt", "Scorch", "Dustfall", "Freeze"},
	ArchetypeModern:   {"Spring", "Summer", "Autumn", "Winter"},
}

// weatherTables gives the candidate weather per season index.
var weatherTables = map[Archetype][4][]string{
	ArchetypeFantasy: {
		{"light rain", "clear skies", "morning mist", "gusty winds"},
		{"blazing sun", "clear skies", "distant thunderheads", "warm haze"},
		{"cold drizzle", "fog", "overcast", "first frost"},
		{"snowfall", "bitter wind", "ice fog", "grey stillness"},
	},
	ArchetypeSciFi: {
		{"nominal atmosphere", "ion storms", "filtered sunlight", "recycler haze"},
		{"solar flare warnings", "nominal atmosphere", "heat shimmer", "dust ingress"},
		{"particulate fog", "nominal atmosphere", "static discharge", "cold snap"},
		{"hull frost", "blizzard", "nominal atmosphere", "radiation squall"},
	},
	ArchetypeHorror: {
		{"clinging mist", "pale light", "unseasonal chill", "dead calm"},
		{"oppressive heat", "sickly haze", "stalled clouds", "dead calm"},
		{"rotting fog", "cold rain", "early dusk", "restless wind"},
		{"black ice", "howling wind", "endless sleet", "moonless dark"},
	},
	ArchetypeWestern: {
		{"dusty wind", "clear skies", "sudden showers", "mild sun"},
		{"punishing heat", "dust devils", "dry lightning", "clear skies"},
		{"cool nights", "tumbleweed gusts", "overcast", "light rain"},
		{"cold snap", "sleet", "biting wind", "pale sun"},
	},
	ArchetypePostApoc: {
		{"acid drizzle", "grey thaw", "ash clouds", "weak sun"},
		{"scorching glare", "dust storms", "heat mirage", "stagnant air"},
		{"toxic fog", "falling ash", "cold drizzle", "amber haze"},
		{"black snow", "razor wind", "ice crust", "long dark"},
	},
	ArchetypeModern: {
		{"light rain", "partly cloudy", "mild breeze", "clear skies"},
		{"heat wave", "clear skies", "humid haze", "scattered storms"},
		{"steady rain", "overcast", "crisp wind", "fog"},
		{"snow flurries", "freezing rain", "cold front", "clear and cold"},
	},
}

// SeasonFor returns the season label for the month under the archetype.
func SeasonFor(month int, arch Archetype, cal Calendar) string {
	if cal.MonthsPerYear <= 0 {
		cal = DefaultCalendar()
	}
	labels, ok := seasonLabels[arch]
	if !ok {
		labels = seasonLabels[ArchetypeModern]
	}
	span := cal.MonthsPerYear / 4
	if span < 1 {
		span = 1
	}
	idx := (month - 1) / span
	if idx > 3 {
		idx = 3
	}
	if idx < 0 {
		idx = 0
	}
	return labels[idx]
}

// WeatherFor picks a weather line for the month under the archetype.
// The pick is random within the season's table; rng may be nil, in
// which case the package-level source is used.
func WeatherFor(month int, arch Archetype, cal Calendar, rng *rand.Rand) string {
	if cal.MonthsPerYear <= 0 {
		cal = DefaultCalendar()
	}
	table, ok := weatherTables[arch]
	if !ok {
		table = weatherTables[ArchetypeModern]
	}
	span := cal.MonthsPerYear / 4
	if span < 1 {
		span = 1
	}
	idx := (month - 1) / span
	if idx > 3 {
		idx = 3
	}
	if idx < 0 {
		idx = 0
	}
	candidates := table[idx]
	if rng != nil {
		return candidates[rng.Intn(len(candidates))]
	}
	return candidates[rand.Intn(len(candidates))]
}
