package lexical

import (
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it into terms of two or more
// letter/digit runes. Stop words and single-rune fragments are dropped.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)

	var tokens []string
	start := -1
	runes := []rune(lowered)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			appendToken(&tokens, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		appendToken(&tokens, string(runes[start:]))
	}
	return tokens
}

func appendToken(tokens *[]string, tok string) {
	if len([]rune(tok)) < 2 {
		return
	}
	if _, stop := englishStopWords[tok]; stop {
		return
	}
	*tokens = append(*tokens, tok)
}
