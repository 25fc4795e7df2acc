package normalize

import "fmt"

// toComparableString renders an arbitrary scalar value into a string usable
// as a map/grouping key. It intentionally uses fmt.Sprintf("%#v") rather than a
// type switch over every driver value type: the engine does not need to
// compare values numerically, only to group identical ones.
func toComparableString(v any) string {
	return fmt.Sprintf("%#v", v)
}

// unique returns a new slice with duplicate strings removed, preserving the
// order of first occurrence. Used throughout the config model to dedupe
// declared column lists.
func unique(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// stringSet builds a set from a slice for O(1) membership tests.
func stringSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// contains reports whether items contains target.
func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

// subtract returns a \ b, preserving a's order.
func subtract(a, b []string) []string {
	bs := stringSet(b)
	var out []string
	for _, it := range a {
		if _, ok := bs[it]; !ok {
			out = append(out, it)
		}
	}
	return out
}
