package queryplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetectsPhrase(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse(`"hello world" report`)
	assert.Equal(t, TypePhrase, pq.Type)
	assert.Contains(t, pq.Phrases, "hello world")
	assert.Contains(t, pq.Tokens, "hello")
	assert.Contains(t, pq.Tokens, "world")
	assert.Contains(t, pq.Tokens, "report")
}

func TestParseDetectsFilename(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("quarterly report budget.xlsx")
	assert.Equal(t, TypeFilename, pq.Type)
}

func TestParseDetectsFuzzy(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("resume~")
	assert.Equal(t, TypeFuzzy, pq.Type)
}

func TestParseDetectsCombinedFromFilter(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("author:alice invoice")
	assert.Equal(t, TypeCombined, pq.Type)
	assert.Equal(t, "alice", pq.Filters["author"])
	assert.Contains(t, pq.Tokens, "invoice")
	assert.NotContains(t, pq.Tokens, "author")
}

func TestParseDetectsSemanticFromTokenCount(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("where did I put the contract from last year")
	assert.Equal(t, TypeSemantic, pq.Type)
}

func TestParseDefaultsToKeyword(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("invoice")
	assert.Equal(t, TypeKeyword, pq.Type)
}

func TestParseTokensBoundedByMaxQueryTokens(t *testing.T) {
	p := NewParser(nil, 2)
	pq := p.Parse("alpha beta gamma delta epsilon")
	assert.LessOrEqual(t, len(pq.Tokens), 2)
}

func TestParseDedupesTokens(t *testing.T) {
	p := NewParser(nil, 0)
	pq := p.Parse("invoice invoice report")
	count := 0
	for _, tok := range pq.Tokens {
		if tok == "invoice" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
