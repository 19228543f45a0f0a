package prompt

import (
	"regexp"
	"strings"
)

// wordRegex splits text into word tokens. '+' and '#' stay inside tokens so
// skills like C++ and C# survive tokenization.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}+#]+`)

func tokenize(s string) []string {
	return wordRegex.FindAllString(strings.ToLower(s), -1)
}

// MatchSkills returns the skills that appear in jobText, in profile order.
// Matching is case-insensitive on word boundaries; a multi-word skill
// matches when its words appear consecutively.
func MatchSkills(jobText string, skills []string) []string {
	jobTokens := tokenize(jobText)
	if len(jobTokens) == 0 {
		return nil
	}

	var matched []string
	for _, skill := range skills {
		if containsSequence(jobTokens, tokenize(skill)) {
			matched = append(matched, skill)
		}
	}
	return matched
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}
