package nlp

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Scorer rates text against a polarity lexicon.
//
// The score is the sum of the weights of matched tokens divided by the total
// number of tokens, so unmatched tokens pull the result toward zero. A
// negation word flips the sign of every match after it in the same text.
// The result is not clamped.
type Scorer struct {
	stems     map[string]int
	negations map[string]struct{}
}

// NewScorer stems lexicon keys once. Keys are visited in sorted order so two
// words sharing a stem always resolve to the same weight.
func NewScorer(lexicon map[string]int, negations []string) *Scorer {
	words := make([]string, 0, len(lexicon))
	for w := range lexicon {
		words = append(words, w)
	}
	sort.Strings(words)

	stems := make(map[string]int, len(words))
	for _, w := range words {
		s := stem(strings.ToLower(w))
		if _, ok := stems[s]; ok {
			continue
		}
		stems[s] = lexicon[w]
	}

	neg := make(map[string]struct{}, len(negations))
	for _, n := range negations {
		neg[strings.ToLower(n)] = struct{}{}
	}
	return &Scorer{stems: stems, negations: neg}
}

// Score returns the mean polarity of text; empty text scores 0.
func (s *Scorer) Score(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}

	total := 0
	negator := 1
	for _, f := range fields {
		word := strings.ToLower(strings.TrimFunc(f, notWordRune))
		if word == "" {
			continue
		}
		if _, ok := s.negations[word]; ok {
			negator = -1
			continue
		}
		if w, ok := s.stems[stem(word)]; ok {
			total += negator * w
		}
	}
	return float64(total) / float64(len(fields))
}

// FormatScore renders a score with exactly two decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func stem(word string) string {
	return english.Stem(word, true)
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
