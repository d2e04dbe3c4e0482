package analyzer

import "strings"

// RelocateWindow is how far Relocate searches on either side of the
// expected line.
const RelocateWindow = 50

// Relocate re-anchors an index line number against lines that may have
// drifted from the indexed revision. It returns the 1-indexed line and true,
// or 0 and false when the symbol is not found nearby.
func Relocate(lines []string, expected int, symbol string) (int, bool) {
	mentions := func(line string) bool {
		if strings.Contains(line, symbol) {
			return true
		}
		if i := strings.LastIndex(symbol, "::"); i >= 0 {
			if last := symbol[i+2:]; last != "" {
				return strings.Contains(line, last)
			}
		}
		return false
	}

	if expected >= 1 && expected <= len(lines) && mentions(lines[expected-1]) {
		return expected, true
	}

	start := expected - RelocateWindow
	if start < 1 {
		start = 1
	}
	end := expected + RelocateWindow
	if end > len(lines) {
		end = len(lines)
	}
	for ln := start; ln <= end; ln++ {
		line := lines[ln-1]
		if mentions(line) && (strings.ContainsAny(line, "(=") || strings.Contains(line, "::")) {
			return ln, true
		}
	}
	return 0, false
}

// definitionMarkers are the smart-pointer return types common in Gecko
// out-of-line definitions.
var definitionMarkers = []string{"(", "already_AddRefed", "RefPtr", "nsCOMPtr"}

// IsPotentialDefinition reports whether a plain text-search hit looks like a
// definition of query rather than a use.
func IsPotentialDefinition(text, query string) bool {
	if !strings.Contains(text, query) && !strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
		return false
	}
	switch {
	case strings.Contains(text, "{"),
		strings.HasSuffix(strings.TrimRight(text, " \t"), ";"),
		strings.Contains(text, "="),
		strings.Contains(text, "class "),
		strings.Contains(text, "struct "),
		strings.Contains(text, "interface "):
		return true
	}
	if strings.Contains(text, "::") {
		for _, m := range definitionMarkers {
			if strings.Contains(text, m) {
				return true
			}
		}
	}
	return false
}
