package crawl

import "strings"

// TokenCounter estimates how many model tokens a piece of text consumes.
// The crawler checks its running total against the budget before each
// fetch, so the estimate only needs to be consistent, not exact.
type TokenCounter interface {
	Count(text string) int
}

// WordTokenCounter approximates token counts by whitespace-separated words.
type WordTokenCounter struct{}

func (WordTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}
