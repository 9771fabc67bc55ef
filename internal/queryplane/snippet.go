package queryplane

import (
	"strings"
)

const defaultSnippetWindow = 160

// buildSnippet picks the content window that maximizes matched-keyword
// coverage and bold-marks matching terms of length >= 3, per the
// step 7. If no keyword occurs in content, it falls back to the leading
// window.
func buildSnippet(content string, keywords []string, window int) (snippet string, matched []string) {
	if window <= 0 {
		window = defaultSnippetWindow
	}
	if content == "" {
		return "", nil
	}

	lower := strings.ToLower(content)
	positions := findKeywordPositions(lower, keywords)
	if len(positions) == 0 {
		snippet = truncate(content, window)
		return snippet, nil
	}

	start, end, matchedSet := bestWindow(positions, len(content), window)
	raw := content[start:end]
	if start > 0 {
		raw = "..." + raw
	}
	if end < len(content) {
		raw = raw + "..."
	}

	matched = make([]string, 0, len(matchedSet))
	for k := range matchedSet {
		matched = append(matched, k)
	}
	return highlight(raw, matched), matched
}

type keywordHit struct {
	start, end int
	keyword    string
}

func findKeywordPositions(lowerContent string, keywords []string) []keywordHit {
	var hits []keywordHit
	for _, kw := range keywords {
		lkw := strings.ToLower(kw)
		if lkw == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(lowerContent[from:], lkw)
			if idx == -1 {
				break
			}
			pos := from + idx
			hits = append(hits, keywordHit{start: pos, end: pos + len(lkw), keyword: kw})
			from = pos + 1
		}
	}
	return hits
}

// bestWindow slides a fixed-size window over the content and returns the
// [start,end) byte range covering the most distinct keyword hits. Hits are
// ordered by keyword and then by position, and a tie keeps the window of the
// first hit in that order.
func bestWindow(hits []keywordHit, contentLen, window int) (int, int, map[string]struct{}) {
	bestStart, bestCount := 0, -1
	var bestSet map[string]struct{}

	for _, h := range hits {
		candidateStart := h.start - window/2
		if candidateStart < 0 {
			candidateStart = 0
		}
		candidateEnd := candidateStart + window
		if candidateEnd > contentLen {
			candidateEnd = contentLen
			candidateStart = candidateEnd - window
			if candidateStart < 0 {
				candidateStart = 0
			}
		}

		set := make(map[string]struct{})
		for _, other := range hits {
			if other.start >= candidateStart && other.end <= candidateEnd {
				set[other.keyword] = struct{}{}
			}
		}
		if len(set) > bestCount {
			bestCount = len(set)
			bestStart = candidateStart
			bestSet = set
		}
	}

	bestEnd := bestStart + window
	if bestEnd > contentLen {
		bestEnd = contentLen
	}
	return bestStart, bestEnd, bestSet
}

// highlight wraps every case-insensitive occurrence of a matched term of
// length >= 3 in **bold** markers.
func highlight(text string, matched []string) string {
	out := text
	for _, m := range matched {
		if len(m) < 3 {
			continue
		}
		out = boldReplaceCaseInsensitive(out, m)
	}
	return out
}

func boldReplaceCaseInsensitive(text, term string) string {
	lowerText := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)
	if lowerTerm == "" {
		return text
	}

	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(lowerText[i:], lowerTerm)
		if idx == -1 {
			b.WriteString(text[i:])
			break
		}
		pos := i + idx
		b.WriteString(text[i:pos])
		b.WriteString("**")
		b.WriteString(text[pos : pos+len(term)])
		b.WriteString("**")
		i = pos + len(term)
	}
	return b.String()
}

func truncate(content string, window int) string {
	if len(content) <= window {
		return content
	}
	return content[:window] + "..."
}
