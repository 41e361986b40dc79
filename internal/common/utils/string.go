package utils

import "strings"

// ContainsFold reports whether substr is within s, ignoring ASCII and Unicode case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Truncate shortens s to at most max runes, appending "..." when it cuts.
// A max below 4 returns the bare cut since the ellipsis would not fit.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 4 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// StringFromPtr safely dereferences a string pointer, returning an empty string if nil.
func StringFromPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
