// Package search maintains the privacy-preserving text index: the literal
// titles and keywords never reach the database, only salted hashes of
// bounded-length prefixes of their stemmed tokens.
package search

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

const (
	// MinTokenLength is the shortest token (and query prefix) worth
	// indexing.
	MinTokenLength = 3

	// MaxPrefixLength bounds how long a hashed prefix can get. Longer
	// search terms are truncated to this length on both sides.
	MaxPrefixLength = 9
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeToken lower-cases and stems one word. Returns "" for stop words
// and for tokens shorter than MinTokenLength after stemming.
func NormalizeToken(word string) string {
	lower := strings.ToLower(word)
	if _, ok := stopWords[lower]; ok {
		return ""
	}
	stemmed, err := snowball.Stem(lower, "english", false)
	if err != nil {
		stemmed = lower
	}
	if len(stemmed) < MinTokenLength {
		return ""
	}
	return stemmed
}

// Tokenize extracts the normalized token set from free text. Duplicates
// are collapsed; order is not significant.
func Tokenize(texts ...string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, text := range texts {
		for _, word := range splitWords(text) {
			token := NormalizeToken(word)
			if token == "" {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Prefixes returns every indexable prefix of a normalized token, from
// MinTokenLength up to MaxPrefixLength runes.
func Prefixes(token string) []string {
	runes := []rune(token)
	max := len(runes)
	if max > MaxPrefixLength {
		max = MaxPrefixLength
	}
	var out []string
	for n := MinTokenLength; n <= max; n++ {
		out = append(out, string(runes[:n]))
	}
	return out
}
