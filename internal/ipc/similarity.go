package ipc

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// defaultCutoff matches the tolerance the historical classifier used for
// typos and missing accents.
const defaultCutoff = 0.6

// Scorer scores the similarity of two strings in [0, 1].
type Scorer interface {
	Ratio(a, b string) float64
}

// SequenceScorer scores similarity with a character-level sequence matcher
// (Ratcliff/Obershelp, the same family as Python's difflib). Matching is
// case-sensitive.
type SequenceScorer struct{}

// Ratio implements Scorer.
func (SequenceScorer) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
