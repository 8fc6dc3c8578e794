// Package textutil ranks free text by token overlap.
//
// Text is reduced to a term-frequency Fingerprint: Latin and other spaced
// scripts split into lowercase words of three or more runes, and Han runs
// split into overlapping character pairs, since Chinese prompts carry no
// spaces. A Corpus turns document frequencies into IDF weights so that
// terms shared by every prompt ("masterpiece", "high quality") stop
// dominating the similarity score.
package textutil
