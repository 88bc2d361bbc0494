package keys

import (
	"strings"
)

// NameKey produces the canonical lookup key for a species or move name.
// Behavior: trims, lower-cases, replaces spaces with underscores. All table
// lookups and snapshot contents use this form so user-supplied casing never
// leaks into battle state.
func NameKey(name string) string {
	s := strings.TrimSpace(name)
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}

// NameKeys maps NameKey over a list, dropping empty entries.
func NameKeys(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if k := NameKey(n); k != "" {
			out = append(out, k)
		}
	}
	return out
}
