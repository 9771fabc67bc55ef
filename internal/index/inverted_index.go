package index

import (
	"sort"
	"sync"

	"github.com/distrisearch/core/internal/types"
)

// Posting is one entry in a term's posting list: the document it matched in
// and its normalized in-document term-frequency score.
type Posting struct {
	DocID string
	Score float64
}

// InvertedIndex is a per-node, single-writer/multiple-reader term→posting
// list index plus the local document store it is built over.
type InvertedIndex struct {
	mu        sync.RWMutex
	tokenizer *Tokenizer
	postings  map[string][]Posting
	documents map[string]*types.Document
}

// NewInvertedIndex creates an empty index using tokenizer (nil uses defaults).
func NewInvertedIndex(tokenizer *Tokenizer) *InvertedIndex {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil, 0)
	}
	return &InvertedIndex{
		tokenizer: tokenizer,
		postings:  make(map[string][]Posting),
		documents: make(map[string]*types.Document),
	}
}

// AddDocument tokenizes content, scores each unique term by normalized
// frequency (count/total_tokens), appends postings, and stores the document.
// Re-indexing an existing doc ID removes the old postings first. Returns the
// set of terms now indexed for this document, used to update shard locators.
func (idx *InvertedIndex) AddDocument(doc *types.Document) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.documents[doc.ID]; exists {
		idx.removeDocumentLocked(doc.ID)
	}

	tokens := idx.tokenizer.Tokenize(doc.Content)
	termFreq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		termFreq[tok]++
	}

	termsAdded := make([]string, 0, len(termFreq))
	for term, freq := range termFreq {
		score := 0.0
		if len(tokens) > 0 {
			score = float64(freq) / float64(len(tokens))
		}
		idx.postings[term] = append(idx.postings[term], Posting{DocID: doc.ID, Score: score})
		termsAdded = append(termsAdded, term)
	}

	idx.documents[doc.ID] = doc
	return termsAdded
}

// RemoveDocument drops every posting referencing docID, removes now-empty
// terms, and deletes the document from the store. Returns the terms that no
// longer have any posting in the index, used to update shard locators; a
// term that another local document still contains is not returned.
func (idx *InvertedIndex) RemoveDocument(docID string) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeDocumentLocked(docID)
}

func (idx *InvertedIndex) removeDocumentLocked(docID string) []string {
	if _, exists := idx.documents[docID]; !exists {
		return nil
	}

	var termsRemoved []string
	for term, postings := range idx.postings {
		filtered := postings[:0]
		for _, p := range postings {
			if p.DocID != docID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(idx.postings, term)
			termsRemoved = append(termsRemoved, term)
		} else {
			idx.postings[term] = filtered
		}
	}

	delete(idx.documents, docID)
	return termsRemoved
}

// Search tokenizes query, accumulates doc_score[doc_id] += posting.score
// across every matched term, and returns the topK highest-scoring (docID,
// score) pairs in descending order.
func (idx *InvertedIndex) Search(query string, topK int) []Posting {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := idx.tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		for _, p := range idx.postings[term] {
			scores[p.DocID] += p.Score
		}
	}

	results := make([]Posting, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Posting{DocID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// GetDocument returns the stored document for docID, or nil if unknown.
func (idx *InvertedIndex) GetDocument(docID string) *types.Document {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.documents[docID]
}

// HasTerm reports whether term has any posting in the local index.
func (idx *InvertedIndex) HasTerm(term string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.postings[term]
	return ok
}

// Terms returns every term currently indexed.
func (idx *InvertedIndex) Terms() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	terms := make([]string, 0, len(idx.postings))
	for t := range idx.postings {
		terms = append(terms, t)
	}
	return terms
}

// Stats reports the current term and document counts plus average posting
// list length, useful for coordinator load-vector calculations.
type Stats struct {
	NumTerms            int
	NumDocuments        int
	AvgPostingsPerTerm float64
}

// Stats computes index-size statistics.
func (idx *InvertedIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	for _, postings := range idx.postings {
		total += len(postings)
	}
	avg := 0.0
	if len(idx.postings) > 0 {
		avg = float64(total) / float64(len(idx.postings))
	}
	return Stats{
		NumTerms:           len(idx.postings),
		NumDocuments:       len(idx.documents),
		AvgPostingsPerTerm: avg,
	}
}
