package app

import "regexp"

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns every @handle in text, left to right, duplicates kept.
// A handle is the run of word characters [A-Za-z0-9_] right after '@'.
// Handles are not checked against the agent registry.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
