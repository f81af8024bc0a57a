package his

import "strings"

// MachineName maps an analyzer id to the HIS-facing machine name, per
// spec.md §4.8's content-based mapping rule.
func MachineName(analyzerID string) string {
	lower := strings.ToLower(analyzerID)
	switch {
	case strings.Contains(lower, "bf6900"), strings.Contains(lower, "hematology"):
		return "Meril CQ 5 Plus"
	case strings.Contains(lower, "autoquant"), strings.Contains(lower, "meril"):
		return "Meril-3.6-11052213"
	default:
		return "Unknown-Analyzer"
	}
}

// testNameAliases maps raw analyzer test identifiers to the canonical
// name HIS expects, per spec.md §4.8.
var testNameAliases = map[string]string{
	"GLU":    "Glu-G",
	"GLUC":   "Glu-G",
	"GLU-G":  "Glu-G",
	"CREA":   "CREA-S",
	"CREAT":  "CREA-S",
	"CREA-S": "CREA-S",
	"TRIG":   "TG",
	"HDL":    "HDL-C",
	"CHOL":   "TC",
	"BUN":    "UREA",
}

// NormalizeTestName strips leading "^"-delimited ASTM component prefixes
// and applies the canonical alias table. Unknown names pass through
// unchanged.
func NormalizeTestName(raw string) string {
	name := raw
	if idx := strings.LastIndex(name, "^"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSpace(name)
	if alias, ok := testNameAliases[strings.ToUpper(name)]; ok {
		return alias
	}
	return name
}
