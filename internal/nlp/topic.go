package nlp

import "strings"

// Classifier picks the topic whose keywords hit the most tokens.
type Classifier struct {
	topics []Topic
}

// NewClassifier builds a classifier over an ordered taxonomy. An empty
// taxonomy is replaced by the default one so Classify always has a topic to
// return. Keywords are lower-cased to match the lower-cased tokens.
func NewClassifier(topics []Topic) *Classifier {
	if len(topics) == 0 {
		topics = DefaultTables().Topics
	}
	own := make([]Topic, len(topics))
	for i, t := range topics {
		kws := make([]string, 0, len(t.Keywords))
		for _, kw := range t.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		own[i] = Topic{Name: t.Name, Keywords: kws}
	}
	return &Classifier{topics: own}
}

// Topics returns the topic names in tie-break order.
func (c *Classifier) Topics() []string {
	names := make([]string, len(c.topics))
	for i, t := range c.topics {
		names[i] = t.Name
	}
	return names
}

// Classify lower-cases text, splits it on whitespace and counts, per topic,
// the tokens containing any of the topic's keywords. The highest count wins;
// on a tie the earlier topic is kept, so a text with no hits gets the first
// topic.
func (c *Classifier) Classify(text string) string {
	tokens := strings.Fields(strings.ToLower(text))

	best := c.topics[0].Name
	bestScore := -1
	for _, topic := range c.topics {
		score := 0
		for _, tok := range tokens {
			if containsAny(tok, topic.Keywords) {
				score++
			}
		}
		if score > bestScore {
			best = topic.Name
			bestScore = score
		}
	}
	return best
}

func containsAny(token string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(token, kw) {
			return true
		}
	}
	return false
}
