// Package textfilter softens narration for worlds with a family
// content rating. The narrator is told the rating, but it drifts;
// this is the enforcement side.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps filtered words to their softened forms. The
// filter word list is derived from the keys.
var replacements = map[string]string{
	"fuck":     "fudge",
	"shit":     "shoot",
	"damn":     "dang",
	"goddamn":  "gosh-dang",
	"hell":     "heck",
	"ass":      "butt",
	"asshole":  "jerk",
	"bitch":    "jerk",
	"bastard":  "scoundrel",
	"crap":     "crud",
	"bullshit": "nonsense",
	"piss":     "ticked",
	"prick":    "jerk",
	"whore":    "[censored]",
	"slut":     "[censored]",
}

// Filter replaces rated words with softened alternatives, preserving
// the case of the original.
type Filter struct {
	regexes map[string]*regexp.Regexp
}

// New builds a Filter with patterns precompiled.
func New() *Filter {
	f := &Filter{regexes: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return f
}

// Apply rewrites filtered words in text.
func (f *Filter) Apply(text string) string {
	result := text
	for word, replacement := range replacements {
		result = f.regexes[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// RatingRequiresFilter reports whether a world content rating calls
// for narration filtering.
func RatingRequiresFilter(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	}
	return false
}

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if original == strings.ToUpper(original) {
		return strings.ToUpper(replacement)
	}
	if original == strings.ToLower(original) {
		return replacement
	}
	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}
	// Mixed case; mirror it rune by rune.
	origRunes := []rune(original)
	out := make([]rune, 0, len(replacement))
	for i, r := range replacement {
		if i < len(origRunes) && unicode.IsUpper(origRunes[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
