package topic

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^A-Za-z\-']`)

// Tokenize normalizes free text into candidate keyword tokens: everything but
// letters, hyphens and apostrophes becomes whitespace, the result is
// lowercased and split. Multi-word registry keys can never come out of this,
// so they only ever surface through the random full-registry pick.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(nonWord.ReplaceAllString(text, " ")))
}
