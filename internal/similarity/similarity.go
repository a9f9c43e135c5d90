// Package similarity reduces a large text corpus to the fragments most
// relevant to a query. Fragments are scored by weighted term overlap, which
// is cheap, deterministic, and good enough for narrowing accomplishment
// corpora before generation.
package similarity

import (
	"sort"
	"strings"
)

const (
	// DefaultChunkSize is the target fragment length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how much adjacent fragments share, so a
	// sentence split across a boundary still scores in one of them.
	DefaultChunkOverlap = 200
)

// Searcher narrows a corpus to its top-k most relevant fragments.
type Searcher interface {
	Index(corpus string) (*Index, error)
	Search(index *Index, query string, k int) []string
}

// Index holds a chunked corpus with per-fragment term frequencies.
type Index struct {
	fragments []fragment
}

type fragment struct {
	text  string
	terms map[string]int
}

// Len reports how many fragments the index holds.
func (idx *Index) Len() int {
	return len(idx.fragments)
}

// LexicalSearcher is the default Searcher implementation.
type LexicalSearcher struct {
	ChunkSize    int
	ChunkOverlap int
}

// Index splits the corpus into overlapping fragments on paragraph
// boundaries where possible.
func (s *LexicalSearcher) Index(corpus string) (*Index, error) {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := s.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	idx := &Index{}
	for _, chunk := range splitChunks(corpus, size, overlap) {
		idx.fragments = append(idx.fragments, fragment{
			text:  chunk,
			terms: termFrequencies(chunk),
		})
	}
	return idx, nil
}

// Search returns up to k fragments ordered by descending relevance to the
// query. Fragments with no term in common with the query are excluded, so
// the result may be shorter than k.
func (s *LexicalSearcher) Search(index *Index, query string, k int) []string {
	if index == nil || k <= 0 {
		return nil
	}

	queryTerms := termFrequencies(query)
	type scored struct {
		text  string
		score float64
		order int
	}

	candidates := make([]scored, 0, len(index.fragments))
	for i, frag := range index.fragments {
		score := overlapScore(frag.terms, queryTerms)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{text: frag.text, score: score, order: i})
	}

	// Stable order: score descending, corpus order breaks ties.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]string, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.text)
	}
	return results
}

// overlapScore sums query term weights found in the fragment, normalized by
// total query weight so scores stay in 0..1.
func overlapScore(fragTerms, queryTerms map[string]int) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}

	totalWeight := 0
	matchedWeight := 0
	for term, weight := range queryTerms {
		totalWeight += weight
		if fragTerms[term] > 0 {
			matchedWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0.0
	}
	return float64(matchedWeight) / float64(totalWeight)
}

// stopTerms are too common to carry relevance signal.
var stopTerms = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true,
}

func termFrequencies(text string) map[string]int {
	terms := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'")
		if len(word) < 2 || stopTerms[word] {
			continue
		}
		terms[word]++
	}
	return terms
}

// splitChunks breaks text into fragments of roughly size characters,
// preferring paragraph boundaries and carrying overlap characters of tail
// context into the next fragment.
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		if overlap > 0 && len(chunk) > overlap {
			current.WriteString(chunk[len(chunk)-overlap:])
			current.WriteString("\n")
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Oversized paragraphs are split on a hard boundary.
		for len(para) > size {
			if current.Len() > 0 {
				flush()
			}
			current.WriteString(para[:size])
			flush()
			para = para[size:]
		}

		if current.Len() > 0 && current.Len()+len(para) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}
