package worldtime

import (
	"math/rand"
	"testing"
)

func TestAdvance_MinuteOverflow(t *testing.T) {
	wt := WorldTime{Year: 1, Month: 1, Day: 1, Hour: 10, Minute: 45}
	got := Advance(wt, 30, DefaultCalendar())

	if got.Hour != 11 || got.Minute != 15 {
		t.Errorf("Expected 11:15, got %02d:%02d", got.Hour, got.Minute)
	}
}

func TestAdvance_DayOverflow(t *testing.T) {
	wt := WorldTime{Year: 1, Month: 1, Day: 1, Hour: 23, Minute: 30}
	got := Advance(wt, 60, DefaultCalendar())

	if got.Day != 2 || got.Hour != 0 || got.Minute != 30 {
		t.Errorf("Expected day 2 00:30, got day %d %02d:%02d", got.Day, got.Hour, got.Minute)
	}
}

func TestAdvance_MonthAndYearOverflow(t *testing.T) {
	cal := DefaultCalendar()
	wt := WorldTime{Year: 10, Month: 12, Day: 30, Hour: 23, Minute: 0}
	got := Advance(wt, 120, cal)

	if got.Year != 11 || got.Month != 1 || got.Day != 1 || got.Hour != 1 {
		t.Errorf("Expected year 11 month 1 day 1 hour 1, got %+v", got)
	}
}

func TestAdvance_CustomCalendar(t *testing.T) {
	cal := Calendar{DaysPerMonth: 24, MonthsPerYear: 10}
	wt := WorldTime{Year: 5, Month: 10, Day: 24, Hour: 0, Minute: 0}
	got := Advance(wt, 24*60, cal)

	if got.Year != 6 || got.Month != 1 || got.Day != 1 {
		t.Errorf("Expected year 6 month 1 day 1, got %+v", got)
	}
}

func TestAdvance_MultipleDays(t *testing.T) {
	wt := WorldTime{Year: 1, Month: 1, Day: 1}
	got := Advance(wt, 3*24*60+90, DefaultCalendar())

	if got.Day != 4 || got.Hour != 1 || got.Minute != 30 {
		t.Errorf("Expected day 4 01:30, got day %d %02d:%02d", got.Day, got.Hour, got.Minute)
	}
}

func TestAdvance_NegativeIgnored(t *testing.T) {
	wt := WorldTime{Year: 1, Month: 6, Day: 15, Hour: 12, Minute: 0}
	got := Advance(wt, -60, DefaultCalendar())

	if got != wt {
		t.Errorf("Expected unchanged time, got %+v", got)
	}
}

func TestClamp(t *testing.T) {
	cal := DefaultCalendar()

	got := Clamp(WorldTime{Year: 1, Month: 14, Day: 40, Hour: 30, Minute: 70}, cal)
	if got.Month != 12 || got.Day != 30 || got.Hour != 23 || got.Minute != 59 {
		t.Errorf("Expected clamped to max, got %+v", got)
	}

	got = Clamp(WorldTime{Year: 1, Month: 0, Day: 0, Hour: -1, Minute: -5}, cal)
	if got.Month != 1 || got.Day != 1 || got.Hour != 0 || got.Minute != 0 {
		t.Errorf("Expected clamped to min, got %+v", got)
	}
}

func TestResolveArchetype(t *testing.T) {
	tests := []struct {
		genre string
		want  Archetype
	}{
		{"dark fantasy", ArchetypeFantasy},
		{"Sword & Sorcery", ArchetypeFantasy},
		{"scifi", ArchetypeSciFi},
		{"Science Fiction mystery", ArchetypeSciFi},
		{"cyberpunk noir", ArchetypeSciFi},
		{"gothic horror", ArchetypeHorror},
		{"weird western", ArchetypeWestern},
		{"post-apocalyptic survival", ArchetypePostApoc},
		{"detective thriller", ArchetypeModern},
		{"", ArchetypeModern},
	}

	for _, tt := range tests {
		if got := ResolveArchetype(tt.genre); got != tt.want {
			t.Errorf("ResolveArchetype(%q) = %v, want %v", tt.genre, got, tt.want)
		}
	}
}

func TestSeasonFor_QuarterSplit(t *testing.T) {
	cal := DefaultCalendar()

	tests := []struct {
		month int
		want  string
	}{
		{1, "Thawtide"},
		{3, "Thawtide"},
		{4, "Highsun"},
		{6, "Highsun"},
		{7, "Harvestfall"},
		{10, "Deepwinter"},
		{12, "Deepwinter"},
	}

	for _, tt := range tests {
		if got := SeasonFor(tt.month, ArchetypeFantasy, cal); got != tt.want {
			t.Errorf("SeasonFor(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestSeasonFor_ShortCalendar(t *testing.T) {
	cal := Calendar{DaysPerMonth: 20, MonthsPerYear: 2}

	// With fewer months than seasons every month maps inside bounds.
	if got := SeasonFor(2, ArchetypeModern, cal); got == "" {
		t.Error("Expected a season label for a 2-month calendar")
	}
}

func TestWeatherFor_DrawsFromSeasonTable(t *testing.T) {
	cal := DefaultCalendar()
	rng := rand.New(rand.NewSource(3))

	winter := map[string]bool{
		"snowfall": true, "bitter wind": true, "ice fog": true, "grey stillness": true,
	}

	for i := 0; i < 20; i++ {
		got := WeatherFor(11, ArchetypeFantasy, cal, rng)
		if !winter[got] {
			t.Errorf("Weather %q is not in the winter table", got)
		}
	}
}

func TestWeatherFor_Deterministic(t *testing.T) {
	cal := DefaultCalendar()

	a := WeatherFor(5, ArchetypeSciFi, cal, rand.New(rand.NewSource(9)))
	b := WeatherFor(5, ArchetypeSciFi, cal, rand.New(rand.NewSource(9)))
	if a != b {
		t.Errorf("Expected identical draws from identical seeds, got %q and %q", a, b)
	}
}
