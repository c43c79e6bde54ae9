// Package nlp holds the keyword, place-name and polarity heuristics used to
// enrich recovered articles. The heuristics are deliberately simple; the data
// they run on is carried in Tables so callers and tests can swap it.
package nlp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic is one entry of the ordered keyword taxonomy.
type Topic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Tables is the data the classifier, scorer and recognizer run on.
type Tables struct {
	// Topics is ordered; ties resolve to the earliest topic.
	Topics    []Topic        `yaml:"topics"`
	Places    []string       `yaml:"places"`
	Lexicon   map[string]int `yaml:"lexicon"`
	Negations []string       `yaml:"negations"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	lex := make(map[string]int, len(defaultLexicon))
	for k, v := range defaultLexicon {
		lex[k] = v
	}
	return Tables{
		Topics: []Topic{
			{Name: "politics", Keywords: []string{"government", "minister", "election", "party", "parliament"}},
			{Name: "sports", Keywords: []string{"cricket", "football", "game", "player", "tournament"}},
			{Name: "agriculture", Keywords: []string{"farmer", "crop", "agriculture", "harvest", "farming"}},
			{Name: "technology", Keywords: []string{"tech", "digital", "software", "artificial", "innovation"}},
			{Name: "business", Keywords: []string{"market", "economy", "stock", "company", "trade"}},
		},
		Places:    []string{"delhi", "mumbai", "kerala", "gujarat", "punjab"},
		Lexicon:   lex,
		Negations: []string{"not", "no", "never", "neither", "nor", "without", "don't", "doesn't", "didn't", "isn't", "wasn't", "can't", "won't"},
	}
}

// LoadTables reads tables from a YAML file. Sections missing from the file
// keep their built-in values.
func LoadTables(path string) (Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("nlp: read tables %s: %w", path, err)
	}
	var fileTables Tables
	if err := yaml.Unmarshal(raw, &fileTables); err != nil {
		return Tables{}, fmt.Errorf("nlp: parse tables %s: %w", path, err)
	}
	return mergeTables(DefaultTables(), fileTables), nil
}

func mergeTables(base, override Tables) Tables {
	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}
	if len(override.Places) > 0 {
		base.Places = override.Places
	}
	if len(override.Lexicon) > 0 {
		base.Lexicon = override.Lexicon
	}
	if len(override.Negations) > 0 {
		base.Negations = override.Negations
	}
	return base
}

// Enricher bundles the three heuristics built from one set of tables.
type Enricher struct {
	Classifier *Classifier
	Scorer     *Scorer
	Recognizer *Recognizer
}

// NewEnricher builds all heuristics from t.
func NewEnricher(t Tables) *Enricher {
	return &Enricher{
		Classifier: NewClassifier(t.Topics),
		Scorer:     NewScorer(t.Lexicon, t.Negations),
		Recognizer: NewRecognizer(t.Places),
	}
}

// defaultLexicon is an AFINN-style subset: word -> weight in [-5, 5].
var defaultLexicon = map[string]int{
	"abandon": -2, "accident": -2, "achieve": 2, "achievement": 3, "advance": 1,
	"agree": 1, "alarm": -2, "anger": -3, "angry": -3, "announce": 0,
	"approve": 2, "arrest": -2, "attack": -1, "award": 3, "bad": -3,
	"ban": -2, "benefit": 2, "best": 3, "blame": -2, "boost": 1,
	"breakthrough": 3, "bright": 1, "celebrate": 3, "chaos": -2, "clash": -2,
	"collapse": -2, "concern": -2, "conflict": -2, "crash": -2, "crime": -3,
	"crisis": -3, "critical": -2, "damage": -3, "danger": -2, "dead": -3,
	"death": -2, "decline": -1, "defeat": -2, "delay": -1, "destroy": -3,
	"disaster": -2, "dispute": -2, "drop": -1, "easy": 1, "efficient": 2,
	"encourage": 2, "excellent": 3, "excite": 3, "exciting": 3, "fail": -2,
	"failure": -2, "fear": -2, "fine": 2, "flood": -2, "fraud": -4,
	"gain": 2, "glad": 3, "good": 3, "great": 3, "grow": 1,
	"growth": 2, "happy": 3, "harm": -2, "help": 2, "hope": 2,
	"hurt": -2, "improve": 2, "injure": -2, "innovative": 2, "kill": -3,
	"launch": 1, "lead": 1, "lose": -3, "loss": -3, "love": 3,
	"outrage": -3, "panic": -3, "peace": 2, "poor": -2, "positive": 2,
	"praise": 3, "problem": -2, "profit": 2, "progress": 2, "promise": 1,
	"prosper": 3, "protest": -2, "record": 1, "recover": 2, "recovery": 2,
	"reform": 1, "reject": -1, "relief": 1, "resign": -1, "rise": 1,
	"risk": -2, "safe": 1, "scam": -2, "scandal": -3, "secure": 2,
	"shock": -2, "slump": -2, "strong": 2, "struggle": -2, "succeed": 3,
	"success": 2, "successful": 3, "support": 2, "surge": 1, "threat": -2,
	"tragedy": -2, "trouble": -2, "violence": -3, "war": -2, "warn": -2,
	"weak": -2, "welcome": 2, "win": 4, "won": 3, "worry": -3,
	"worse": -3, "worst": -3,
}
