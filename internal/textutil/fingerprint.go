package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minWordRunes is the shortest non-Han token kept.
const minWordRunes = 3

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase tokens. Words shorter than three runes
// are dropped; a Han run yields its character bigrams, or the single
// character when the run has length one.
func Tokenize(text string) []string {
	terms := make([]string, 0, len(text)/4)
	var word strings.Builder
	var han []rune

	flushWord := func() {
		if utf8.RuneCountInString(word.String()) >= minWordRunes {
			terms = append(terms, word.String())
		}
		word.Reset()
	}
	flushHan := func() {
		switch len(han) {
		case 0:
		case 1:
			terms = append(terms, string(han))
		default:
			for i := 0; i+1 < len(han); i++ {
				terms = append(terms, string(han[i:i+2]))
			}
		}
		han = han[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			flushHan()
			word.WriteRune(unicode.ToLower(r))
		default:
			flushWord()
			flushHan()
		}
	}
	flushWord()
	flushHan()
	return terms
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// WithIDF returns a new Fingerprint with TF-IDF weights applied.
// Each term's count is multiplied by its IDF weight. The norm is recomputed.
// Terms absent from the IDF map retain their original weight.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	var norm float64
	for token, count := range f.tokens {
		w := count
		if idfVal, ok := idf[token]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &Fingerprint{
		tokens: weighted,
		norm:   math.Sqrt(norm),
	}
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a fingerprint's unique terms in the corpus. A nil
// fingerprint still counts as a document.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil {
		return
	}
	c.docCount++
	if fp == nil {
		return
	}
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// IDF computes smoothed inverse document frequency weights,
// log((N+1)/(1+df)) + 1, so a term present everywhere keeps weight one.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
