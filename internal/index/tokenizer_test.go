package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndStripsPunctuation(t *testing.T) {
	tok := NewTokenizer(nil, 0)
	tokens := tok.Tokenize("Hello, World! Testing 123.")
	assert.ElementsMatch(t, []string{"hello", "world", "testing", "123"}, tokens)
}

func TestTokenizeFiltersStopwordsAndShortTokens(t *testing.T) {
	tok := NewTokenizer(nil, 0)
	tokens := tok.Tokenize("the cat is on a mat")
	assert.ElementsMatch(t, []string{"cat", "mat"}, tokens)
}

func TestTokenizeCustomMinLength(t *testing.T) {
	tok := NewTokenizer(map[string]struct{}{}, 4)
	tokens := tok.Tokenize("a ab abc abcd abcde")
	assert.ElementsMatch(t, []string{"abcd", "abcde"}, tokens)
}

func TestExtractUniqueTerms(t *testing.T) {
	tok := NewTokenizer(nil, 0)
	unique := tok.ExtractUniqueTerms("dog dog cat cat bird")
	assert.Len(t, unique, 3)
	assert.Contains(t, unique, "dog")
	assert.Contains(t, unique, "cat")
	assert.Contains(t, unique, "bird")
}
