// Package utils has small shared helpers for input normalization, TOML
// parsing and filesystem checks.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenRune reports whether r can appear inside an index token. The set
// must match the build-time tokenizer exactly, or runtime lookups silently
// miss words the build indexed.
func tokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\''
}

// Normalize lowercases text and splits it into index tokens. Tokens keep
// interior hyphens and apostrophes ("write-behind", "doesn't") but shed
// them at the edges; everything else separates tokens.
func Normalize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !tokenRune(r)
	})

	tokens := fields[:0]
	for _, tok := range fields {
		tok = strings.Trim(tok, "-'")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// LastToken returns the final token of text and whether the input ended
// mid-token, meaning the user is still typing that word. A trailing
// separator (space, punctuation) marks the token as complete.
func LastToken(text string) (token string, partial bool) {
	tokens := Normalize(text)
	if len(tokens) == 0 {
		return "", false
	}

	last, _ := utf8.DecodeLastRuneInString(text)
	return tokens[len(tokens)-1], tokenRune(unicode.ToLower(last))
}
