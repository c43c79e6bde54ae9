package nlp

import (
	"regexp"
	"strings"
)

var (
	wordSplitRe   = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	personTokenRe = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

// Entities are the place and person mentions found in a text.
type Entities struct {
	States []string `json:"states"`
	People []string `json:"people"`
}

// Recognizer finds known place names and capitalized words.
//
// People detection keeps any capitalized word longer than two letters, so
// the first word of most sentences is reported too.
type Recognizer struct {
	places []string
}

// NewRecognizer lower-cases and deduplicates the place list.
func NewRecognizer(places []string) *Recognizer {
	seen := make(map[string]struct{}, len(places))
	out := make([]string, 0, len(places))
	for _, p := range places {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return &Recognizer{places: out}
}

// Extract returns places in list order and people in first-seen order.
// Both slices are non-nil.
func (r *Recognizer) Extract(text string) Entities {
	lower := strings.ToLower(text)
	states := make([]string, 0)
	for _, p := range r.places {
		if strings.Contains(lower, p) {
			states = append(states, p)
		}
	}

	people := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tok := range wordSplitRe.Split(text, -1) {
		if len(tok) <= 2 || !personTokenRe.MatchString(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		people = append(people, tok)
	}

	return Entities{States: states, People: people}
}
