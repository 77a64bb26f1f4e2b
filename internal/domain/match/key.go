package match

import (
	"strings"

	"github.com/312Evan/frcstats/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH KEY FORMATTER
// ══════════════════════════════════════════════════════════════════════════════

// matchTypeNames maps the two-letter competition-level code embedded in a
// match key to its display name. Unknown codes pass through verbatim.
var matchTypeNames = map[string]string{
	"qm": "Qualifier",
	"qf": "Quarterfinal",
	"sf": "Semifinal",
	"f":  "Final",
}

// elimTypes are the elimination-bracket levels whose details encode a
// set/match compound form ("2m1" = set 2, match 1). For these the formatted
// label shows the set number, not the raw details.
var elimTypes = map[string]bool{
	"qf": true,
	"sf": true,
	"f":  true,
}

// FormatKey turns an opaque match key like "2024miket_qm12" into a
// human-readable label like "Miket Qualifier 12".
//
// The key is "<year><eventcode>_<type><details>". The event code is
// capitalized, the two-letter type code is mapped to its display name, and
// for elimination levels with a set/match compound the set number replaces
// the raw details. Malformed keys (missing separator, empty segments) fail
// with a parse error.
func FormatKey(key string) (string, error) {
	eventPart, matchPart, found := strings.Cut(key, "_")
	if !found {
		return "", shared.WrapError("match", "FormatKey", shared.ErrParse, "missing separator", nil)
	}
	if len(eventPart) <= 4 || matchPart == "" {
		return "", shared.WrapError("match", "FormatKey", shared.ErrParse, "empty segment in key "+key, nil)
	}

	eventCode := eventPart[4:]
	formattedEvent := strings.ToUpper(eventCode[:1]) + strings.ToLower(eventCode[1:])

	matchType, details := splitMatchPart(matchPart)

	if elimTypes[matchType] && strings.Contains(details, "m") {
		setNumber, _, _ := strings.Cut(details, "m")
		return formattedEvent + " " + matchTypeNames[matchType] + " " + setNumber, nil
	}

	name, ok := matchTypeNames[matchType]
	if !ok {
		name = matchType
	}
	return formattedEvent + " " + name + " " + details, nil
}

// CompLevel returns the competition-level code of a match key ("qm", "qf",
// "sf", "f"), or "" for a malformed key.
func CompLevel(key string) string {
	_, matchPart, found := strings.Cut(key, "_")
	if !found {
		return ""
	}
	level, _ := splitMatchPart(matchPart)
	return level
}

// splitMatchPart separates the competition-level code from the match details.
// Levels are one ("f") or two ("qm", "qf", "sf") letters followed by digits.
func splitMatchPart(matchPart string) (string, string) {
	i := 0
	for i < len(matchPart) && matchPart[i] >= 'a' && matchPart[i] <= 'z' {
		i++
	}
	return matchPart[:i], matchPart[i:]
}
