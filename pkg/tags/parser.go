package tags

import (
	"strconv"
	"strings"
)

// EndOfNarrationMarker separates prose from the directive block in a
// narrator response. Directives may also appear inline; the marker just
// tells the model where to put them.
const EndOfNarrationMarker = "---"

// Diagnostic records a directive that was seen but not applied.
type Diagnostic struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// Result is the output of Extract: display prose with directive lines
// removed, the ordered tag stream, and any parse diagnostics.
type Result struct {
	Narration   string       `json:"narration"`
	Tags        []Tag        `json:"tags"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Extract splits a raw narrator response into display prose and an
// ordered list of typed tags.
//
// A line is treated as a directive when its trimmed content is exactly
// one bracketed directive with a recognized tag name. Anything else,
// including bracketed text with an unknown name, stays in the prose
// (the narrator is unreliable, so extraction fails open). Inline
// display markup (entity/important/status/thought/quote spans) belongs
// to the rendering layer and passes through untouched.
func Extract(raw string) Result {
	var res Result
	var prose []string

	afterMarker := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)

		if !afterMarker && trimmed == EndOfNarrationMarker {
			afterMarker = true
			continue
		}

		tag, ok, reason := parseDirectiveLine(trimmed)
		if ok {
			if err := validate(tag); err != nil {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: trimmed, Reason: err.Error()})
				continue
			}
			res.Tags = append(res.Tags, tag)
			continue
		}
		if reason != "" {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: trimmed, Reason: reason})
			continue
		}

		// Not a directive. Lines after the marker that aren't
		// directives are narrator noise, not prose.
		if !afterMarker {
			prose = append(prose, line)
		}
	}

	res.Narration = strings.TrimSpace(strings.Join(prose, "\n"))
	return res
}

// parseDirectiveLine attempts to read a line as a single bracketed
// directive. Returns ok=false with an empty reason when the line is
// ordinary prose, and ok=false with a reason when the line looked like
// a recognized directive but could not be parsed.
func parseDirectiveLine(line string) (Tag, bool, string) {
	if len(line) < 4 || line[0] != '[' || line[len(line)-1] != ']' {
		return Tag{}, false, ""
	}
	body := line[1 : len(line)-1]

	colon := strings.Index(body, ":")
	if colon < 0 {
		return Tag{}, false, ""
	}
	name := strings.TrimSpace(body[:colon])
	if !Recognized(name) {
		// Unknown bracket content is left as literal text.
		return Tag{}, false, ""
	}

	params, err := parseParams(body[colon+1:])
	if err != nil {
		return Tag{}, false, name + ": " + err.Error()
	}
	return Tag{Name: name, Params: params}, true, ""
}

// parseParams reads comma-separated key=value pairs. Quoted values are
// strings, bare true/false are bools, and anything else that parses as
// a float is a number. Minor sloppiness (stray spaces, a trailing
// comma, an unquoted word value) is tolerated.
func parseParams(s string) (map[string]any, error) {
	params := make(map[string]any)

	for _, pair := range splitPairs(s) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.Index(pair, "=")
		if eq < 0 {
			return nil, errMalformedPair(pair)
		}
		key := strings.TrimSpace(pair[:eq])
		if key == "" {
			return nil, errMalformedPair(pair)
		}
		params[key] = coerceValue(strings.TrimSpace(pair[eq+1:]))
	}
	return params, nil
}

type malformedPairError string

func (e malformedPairError) Error() string { return "malformed param " + strconv.Quote(string(e)) }

func errMalformedPair(pair string) error { return malformedPairError(pair) }

// splitPairs splits on commas that are outside double quotes.
func splitPairs(s string) []string {
	var pairs []string
	var cur strings.Builder
	inQuote := false
	escaped := false

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			cur.WriteRune(r)
			escaped = true
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			pairs = append(pairs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	pairs = append(pairs, cur.String())
	return pairs
}

// coerceValue infers the parameter type from its spelling.
func coerceValue(v string) any {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		unquoted, err := strconv.Unquote(v)
		if err != nil {
			// Sloppy quoting from the model; strip the quotes and move on.
			return v[1 : len(v)-1]
		}
		return unquoted
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	// Bare word value; treat as a string.
	return v
}
