package reconciling

import (
	"strings"

	"tomekeeper/src/features/config"
)

// NormalizeGenres folds raw genre candidates onto the approved vocabulary.
// Matching is case-insensitive; aliases may fan one raw genre out to
// several approved ones. With enforcement off, unknown genres pass through
// as-is (trimmed, deduped). Order is preserved; cap 0 means uncapped.
func NormalizeGenres(raw []string, policy config.Genres) []string {
	approved := make(map[string]string, len(policy.Approved))
	for _, g := range policy.Approved {
		approved[normalizeGenreKey(g)] = g
	}
	aliases := make(map[string][]string, len(policy.Aliases))
	for k, v := range policy.Aliases {
		aliases[normalizeGenreKey(k)] = v
	}

	var out []string
	seen := make(map[string]bool)
	add := func(g string) {
		g = strings.TrimSpace(g)
		if g == "" || seen[normalizeGenreKey(g)] {
			return
		}
		seen[normalizeGenreKey(g)] = true
		out = append(out, g)
	}

	for _, g := range raw {
		key := normalizeGenreKey(g)
		if key == "" {
			continue
		}
		if targets, ok := aliases[key]; ok {
			for _, t := range targets {
				add(t)
			}
			continue
		}
		if canonical, ok := approved[key]; ok {
			add(canonical)
			continue
		}
		if !policy.Enforcement {
			add(g)
		}
	}

	if policy.Cap > 0 && len(out) > policy.Cap {
		out = out[:policy.Cap]
	}
	return out
}

func normalizeGenreKey(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	g = strings.ReplaceAll(g, "&", "and")
	return strings.Join(strings.Fields(g), " ")
}
