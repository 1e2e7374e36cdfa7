// Package strings provides string helpers shared by catalog queries.
package strings

import (
	"slices"
	"strings"
)

// DistinctSorted returns the distinct non-empty values in ascending byte
// order. Values are compared as-is: "AI" and "ai" are different tags.
//
// Example:
//
//	DistinctSorted([]string{"VR", "AI", "VR", ""})
//	// Returns: []string{"AI", "VR"}
func DistinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	slices.Sort(result)
	return result
}

// ContainsFold reports whether substr occurs in s ignoring case.
// An empty substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
