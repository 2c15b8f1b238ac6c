package textutil

import "strings"

// MatchKind classifies how two texts relate lexically.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	// MatchAContainsB means every word of b appears, in order, inside a.
	MatchAContainsB
	MatchBContainsA
	MatchPartial
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchAContainsB:
		return "a_contains_b"
	case MatchBContainsA:
		return "b_contains_a"
	case MatchPartial:
		return "partial"
	default:
		return "none"
	}
}

// Match is the outcome of comparing two texts.
type Match struct {
	Kind  MatchKind
	Score float64
}

// MinPartialOverlap is the word overlap ratio required for a partial match.
const MinPartialOverlap = 0.6

// Compare scores the lexical similarity of a and b. Exact matches score 1.0,
// containment 0.9, and partial word overlap scores overlap*0.7 once the
// overlap ratio reaches MinPartialOverlap.
func Compare(a, b string) Match {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return Match{}
	}
	switch {
	case na == nb:
		return Match{Kind: MatchExact, Score: 1.0}
	case containsWords(na, nb):
		return Match{Kind: MatchAContainsB, Score: 0.9}
	case containsWords(nb, na):
		return Match{Kind: MatchBContainsA, Score: 0.9}
	}
	if overlap := WordOverlap(na, nb); overlap >= MinPartialOverlap {
		return Match{Kind: MatchPartial, Score: overlap * 0.7}
	}
	return Match{}
}

// WordOverlap returns the share of words in the shorter text that also occur in
// the longer one. Inputs are expected to be normalized.
func WordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	if len(wordsB) < len(wordsA) {
		wordsA, wordsB = wordsB, wordsA
	}
	set := make(map[string]int, len(wordsB))
	for _, w := range wordsB {
		set[w]++
	}
	matches := 0
	for _, w := range wordsA {
		if set[w] > 0 {
			set[w]--
			matches++
		}
	}
	return float64(matches) / float64(len(wordsA))
}

// containsWords reports whether needle occurs in hay on word boundaries.
func containsWords(hay, needle string) bool {
	return strings.Contains(" "+hay+" ", " "+needle+" ")
}
