package appointment

import (
	"regexp"
	"strings"
)

// blockPattern matches the first sentinel-delimited block, non-greedy so a
// malformed double block never swallows surrounding speech.
var blockPattern = regexp.MustCompile(`(?s)` + BeginSentinel + `(.*?)` + EndSentinel)

// Extract parses the first delimited appointment block out of agent text.
//
// The overwhelmingly common case is no block at all, which must stay cheap:
// a substring check runs before the regexp.
//
// Block grammar: one "key: value" pair per line; the value is everything
// after the first colon, trimmed; lines without a colon are ignored; keys are
// case-folded. A vehicle value with fewer than three whitespace tokens yields
// a nil vehicle rather than a partial one.
func Extract(agentText string) (Request, bool) {
	if !strings.Contains(agentText, BeginSentinel) {
		return Request{}, false
	}
	m := blockPattern.FindStringSubmatch(agentText)
	if m == nil {
		return Request{}, false
	}

	fields := map[string]string{}
	for _, line := range strings.Split(m[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		fields[key] = value
	}

	req := Request{
		Service:       fields["service"],
		Date:          fields["date"],
		Time:          fields["time"],
		CustomerName:  fields["name"],
		CustomerPhone: fields["phone"],
		Notes:         fields["notes"],
		Vehicle:       parseVehicle(fields["vehicle"]),
	}
	return req, true
}

// Strip removes every delimited block from the text returned to the caller.
// The caller hears only the conversational prefix/suffix that surrounded it.
func Strip(agentText string) string {
	if !strings.Contains(agentText, BeginSentinel) {
		return agentText
	}
	out := blockPattern.ReplaceAllString(agentText, "")
	return strings.TrimSpace(out)
}

func parseVehicle(s string) *Vehicle {
	parts := strings.Fields(s)
	if len(parts) < 3 {
		return nil
	}
	return &Vehicle{
		Year:  parts[0],
		Make:  parts[1],
		Model: strings.Join(parts[2:], " "),
	}
}
