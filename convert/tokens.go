package convert

import "unicode"

// EstimateTokens approximates how many LLM tokens text costs. Every run of
// letters, digits and underscores counts once, every other non-space
// character counts on its own, and whitespace is free.
func EstimateTokens(text string) int {
	count := 0
	inWord := false

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			if !inWord {
				count++
				inWord = true
			}
			continue
		}
		inWord = false
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
