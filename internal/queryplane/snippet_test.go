package queryplane

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSnippetHighlightsKeyword(t *testing.T) {
	content := "The quarterly budget report shows a significant increase in spending this year."
	snippet, matched := buildSnippet(content, []string{"budget"}, 40)
	assert.Contains(t, snippet, "**budget**")
	assert.Contains(t, matched, "budget")
}

func TestBuildSnippetFallsBackToLeadingWindow(t *testing.T) {
	content := strings.Repeat("x", 300)
	snippet, matched := buildSnippet(content, []string{"nonexistent"}, 50)
	assert.Empty(t, matched)
	assert.Contains(t, snippet, "...")
	assert.LessOrEqual(t, len(snippet), 54)
}

func TestBuildSnippetEmptyContent(t *testing.T) {
	snippet, matched := buildSnippet("", []string{"x"}, 50)
	assert.Equal(t, "", snippet)
	assert.Nil(t, matched)
}

func TestBestWindowPrefersMostCoverage(t *testing.T) {
	content := "alpha " + strings.Repeat("filler ", 20) + "beta gamma"
	hits := findKeywordPositions(content, []string{"beta", "gamma"})
	start, end, set := bestWindow(hits, len(content), 40)
	assert.True(t, end > start)
	assert.Contains(t, set, "beta")
}

func TestHighlightSkipsShortTerms(t *testing.T) {
	out := highlight("to be or not to be", []string{"to"})
	assert.Equal(t, "to be or not to be", out)
}
