package fuzzy

import (
	"regexp"
	"strconv"
	"strings"
)

// The estimator runs on the player's raw action text, independent of
// whatever TIME_PASS level the narrator later reports. When it finds
// an explicit time phrase, its value takes precedence for the turn.

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "a couple of": 2, "a few": 3, "several": 4,
}

var unitMinutes = map[string]int{
	"minute": 1,
	"hour":   60,
	"day":    24 * 60,
	"week":   7 * 24 * 60,
	"month":  30 * 24 * 60,
	"year":   360 * 24 * 60,
}

const numPattern = `(\d+|a couple of|a few|several|an|a|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`
const unitPattern = `(minute|hour|day|week|month|year)`

var (
	// "for an hour", "for about three days", "resting for 2 hours"
	reForDuration = regexp.MustCompile(`\bfor\s+(?:about\s+|nearly\s+|almost\s+)?` + numPattern + `\s+` + unitPattern + `s?\b`)
	// "three days later", "two hours pass", "a week goes by"
	reElapsed = regexp.MustCompile(`\b` + numPattern + `\s+` + unitPattern + `s?\s+(?:later|pass(?:es)?|go(?:es)? by)\b`)
)

// Fixed phrases that don't follow the number+unit shape.
var phraseMinutes = []struct {
	phrase  string
	minutes int
}{
	{"half an hour", 30},
	{"overnight", 8 * 60},
	{"all day", 12 * 60},
	{"all night", 8 * 60},
	{"the rest of the day", 8 * 60},
}

// EstimateFromText scans the player's action text for an explicit time
// phrase and returns its length in minutes. Returns ok=false when no
// phrase is found; the turn then falls back to the narrator's
// TIME_PASS level.
func EstimateFromText(action string) (int, bool) {
	lowered := strings.ToLower(action)

	// Fixed phrases first: "half an hour" would otherwise be read as
	// "an hour" by the elapsed pattern.
	for _, p := range phraseMinutes {
		if strings.Contains(lowered, p.phrase) {
			return p.minutes, true
		}
	}

	for _, re := range []*regexp.Regexp{reForDuration, reElapsed} {
		if m := re.FindStringSubmatch(lowered); m != nil {
			if minutes, ok := resolveMatch(m[1], m[2]); ok {
				return minutes, true
			}
		}
	}
	return 0, false
}

func resolveMatch(num, unit string) (int, bool) {
	per, ok := unitMinutes[unit]
	if !ok {
		return 0, false
	}
	if n, err := strconv.Atoi(num); err == nil {
		if n <= 0 {
			return 0, false
		}
		return n * per, true
	}
	if n, ok := numberWords[num]; ok {
		return n * per, true
	}
	return 0, false
}
