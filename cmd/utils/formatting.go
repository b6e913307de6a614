package utils

import "strings"

// IconForStatus maps an agent or call state to a status glyph.
func IconForStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "running", "success":
		return "✅"
	case "inconclusive":
		return "❔"
	case "not running", "failed":
		return "❌"
	default:
		return "❓"
	}
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
