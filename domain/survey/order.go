package survey

// OrderLabels sequences observed labels. Labels named in fixed come first in
// that order (only when observed); the rest follow in observed order.
func OrderLabels(observed []string, fixed []string) []string {
	seen := make(map[string]bool, len(observed))
	var uniq []string
	for _, l := range observed {
		if !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	if len(fixed) == 0 {
		return uniq
	}
	out := make([]string, 0, len(uniq))
	placed := make(map[string]bool, len(fixed))
	for _, l := range fixed {
		if seen[l] && !placed[l] {
			placed[l] = true
			out = append(out, l)
		}
	}
	for _, l := range uniq {
		if !placed[l] {
			out = append(out, l)
		}
	}
	return out
}
