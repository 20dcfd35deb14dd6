package reconciling

import (
	"regexp"
	"strings"
)

var (
	reCodeFence = regexp.MustCompile("(?s)```.*?```")
	reHTMLTag   = regexp.MustCompile(`<[^>]+>`)
	// Lines a text generator leaks into scraped descriptions.
	reGeneratorMarker = regexp.MustCompile(`(?i)^\s*(?:as an ai\b|here is a\b|here's a\b|sure[,!]|certainly[,!]).*$`)
	reJSONDebris      = regexp.MustCompile(`(?s)^\s*[{\[].*[}\]]\s*$`)
	reWhitespace      = regexp.MustCompile(`[ \t]+`)
	reBlankLines      = regexp.MustCompile(`\n{3,}`)
)

// SanitizeDescription cleans a provider description: code fences, markup,
// JSON debris and generator chatter go, whitespace collapses. An empty
// result means the description was all junk.
func SanitizeDescription(s string) string {
	s = reCodeFence.ReplaceAllString(s, "")
	if reJSONDebris.MatchString(s) {
		return ""
	}
	s = reHTMLTag.ReplaceAllString(s, " ")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if reGeneratorMarker.MatchString(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(reWhitespace.ReplaceAllString(line, " "), " "))
	}
	s = strings.Join(kept, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
