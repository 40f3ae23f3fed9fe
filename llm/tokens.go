package llm

import "unicode/utf8"

// maxMarkupTokens bounds the element markup sent for a fix. Selectors such
// as "html > body" resolve to the whole page, which no model should be asked
// to rewrite in one completion.
const maxMarkupTokens = 4000

// EstimateTokens provides a fast token count estimate without a tokenizer.
//
// Heuristic: utf8 rune count / 3. Markup is denser than prose (~3.5
// chars/token for English), so this over-estimates slightly.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
