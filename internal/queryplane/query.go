// Package queryplane implements the distributed query pipeline: parse and
// vectorize the incoming query, locate candidate nodes via the sharding
// layer, fan out with failure fallback to other healthy nodes, aggregate and
// rank results, paginate, and generate snippets.
package queryplane

import (
	"regexp"
	"strings"

	"github.com/distrisearch/core/internal/index"
)

// Type is the auto-detected shape of a query, used to decide which search
// strategies a node should apply locally.
type Type string

const (
	TypeKeyword  Type = "KEYWORD"
	TypePhrase   Type = "PHRASE"
	TypeSemantic Type = "SEMANTIC"
	TypeFuzzy    Type = "FUZZY"
	TypeFilename Type = "FILENAME"
	TypeCombined Type = "COMBINED"
)

var (
	filterPattern   = regexp.MustCompile(`\b(\w+):(\S+)\b`)
	phrasePattern   = regexp.MustCompile(`"([^"]+)"`)
	filenamePattern = regexp.MustCompile(`\.\w{2,4}$`)
)

// ProcessedQuery is the output of Parser.Parse: the raw query decomposed
// into the tokens, keywords, phrases and filters the rest of the plane
// consumes, plus its auto-detected Type.
type ProcessedQuery struct {
	Original string
	Type     Type
	Tokens   []string // bounded at maxQueryTokens, used for candidate location
	Keywords []string // the same tokens before deduplication, used for snippet highlighting
	Phrases  []string // quoted substrings
	Filters  map[string]string
}

// Parser tokenizes and classifies raw query strings using the same
// tokenizer rules as the local inverted index, so a
// token the query plane selects for routing is guaranteed to match the
// posting-list vocabulary a node indexed it under.
type Parser struct {
	tokenizer      *index.Tokenizer
	maxQueryTokens int
}

// NewParser creates a Parser. A nil tokenizer uses index.NewTokenizer's
// defaults; maxQueryTokens <= 0 defaults to 32, matching
// ClusterConfig.MaxQueryTokens' documented default.
func NewParser(tokenizer *index.Tokenizer, maxQueryTokens int) *Parser {
	if tokenizer == nil {
		tokenizer = index.NewTokenizer(nil, 0)
	}
	if maxQueryTokens <= 0 {
		maxQueryTokens = 32
	}
	return &Parser{tokenizer: tokenizer, maxQueryTokens: maxQueryTokens}
}

// Parse extracts filters (key:value), quoted phrases, and tokens from raw,
// classifies the query's Type, and returns the ProcessedQuery the rest of
// the plane routes and ranks against.
func (p *Parser) Parse(raw string) ProcessedQuery {
	queryType := p.detectType(raw)

	filters, withoutFilters := extractFilters(raw)
	phrases, withoutPhrases := extractPhrases(withoutFilters)

	tokens := p.tokenizer.Tokenize(withoutPhrases)

	// Phrase tokens participate in candidate location and scoring alongside
	// keyword tokens, tokenized the same way so they match posting-list terms.
	for _, phrase := range phrases {
		tokens = append(tokens, p.tokenizer.Tokenize(phrase)...)
	}
	if len(tokens) > p.maxQueryTokens {
		tokens = tokens[:p.maxQueryTokens]
	}

	return ProcessedQuery{
		Original: raw,
		Type:     queryType,
		Tokens:   dedupe(tokens),
		Keywords: tokens,
		Phrases:  phrases,
		Filters:  filters,
	}
}

// detectType classifies raw using the same signal order as the reference
// implementation: quoted phrase > filename suffix > fuzzy marker > filter
// presence > token count, defaulting to keyword search.
func (p *Parser) detectType(raw string) Type {
	if strings.Contains(raw, `"`) {
		return TypePhrase
	}

	fields := strings.Fields(raw)
	if len(fields) > 0 && filenamePattern.MatchString(fields[len(fields)-1]) {
		return TypeFilename
	}

	if strings.Contains(raw, "~") {
		return TypeFuzzy
	}

	if filterPattern.MatchString(raw) {
		return TypeCombined
	}

	if len(fields) > 3 {
		return TypeSemantic
	}
	return TypeKeyword
}

func extractFilters(raw string) (map[string]string, string) {
	filters := make(map[string]string)
	matches := filterPattern.FindAllStringSubmatch(raw, -1)
	for _, m := range matches {
		filters[strings.ToLower(m[1])] = m[2]
	}
	return filters, filterPattern.ReplaceAllString(raw, "")
}

func extractPhrases(raw string) ([]string, string) {
	matches := phrasePattern.FindAllStringSubmatch(raw, -1)
	phrases := make([]string, 0, len(matches))
	for _, m := range matches {
		phrases = append(phrases, m[1])
	}
	return phrases, phrasePattern.ReplaceAllString(raw, "")
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
