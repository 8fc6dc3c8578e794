package textutil

import (
	"cmp"
	"slices"
	"strings"
)

// Document is one searchable text with a caller-defined id.
type Document struct {
	ID   int64
	Text string
}

// Match is a ranked search hit.
type Match struct {
	ID int64
	// Exact is set when the document contains the query verbatim, ignoring case.
	Exact bool
	Score float64
}

// Rank returns the documents matching query: exact substring hits first,
// then token matches whose TF-IDF cosine similarity reaches minScore. Ties
// keep the input order.
func Rank(query string, docs []Document, minScore float64) []Match {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Match{}
	}

	corpus := NewCorpus()
	prints := make([]*Fingerprint, len(docs))
	for i, d := range docs {
		prints[i] = NewFingerprint(d.Text)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	q := NewFingerprint(query).WithIDF(idf)

	matches := make([]Match, 0, len(docs))
	for i, d := range docs {
		m := Match{
			ID:    d.ID,
			Exact: strings.Contains(strings.ToLower(d.Text), needle),
			Score: Cosine(q, prints[i].WithIDF(idf)),
		}
		if m.Exact || m.Score >= minScore {
			matches = append(matches, m)
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Exact != b.Exact {
			if a.Exact {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return matches
}

// Cosine scores two fingerprints in [0, 1]. A nil or empty fingerprint
// scores 0 against anything.
func Cosine(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a.tokens, b.tokens
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for token, weight := range small {
		dot += weight * large[token]
	}
	return dot / (a.norm * b.norm)
}
