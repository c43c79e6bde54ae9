package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/LJTian/NewsHarvest/internal/extract"
	"github.com/LJTian/NewsHarvest/internal/nlp"
)

// UntitledTitle replaces an empty title.
const UntitledTitle = "Untitled Article"

// summaryTokens is how many whitespace-delimited tokens of content make up a summary.
const summaryTokens = 30

// Article is the enriched record served to readers.
type Article struct {
	ID        string       `json:"id"`
	Source    string       `json:"source"`
	Title     string       `json:"title"`
	Summary   string       `json:"summary"`
	Topic     string       `json:"topic"`
	Sentiment string       `json:"sentiment"`
	Entities  nlp.Entities `json:"entities"`
	URL       string       `json:"url,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Processor turns recovered candidates into articles.
type Processor struct {
	enricher *nlp.Enricher
}

// New builds a processor over the given tables.
func New(tables nlp.Tables) *Processor {
	return &Processor{enricher: nlp.NewEnricher(tables)}
}

// NewDefault builds a processor over the built-in tables.
func NewDefault() *Processor {
	return New(nlp.DefaultTables())
}

// Enricher exposes the heuristics the processor runs.
func (p *Processor) Enricher() *nlp.Enricher {
	return p.enricher
}

// Process enriches candidates in order. Every field except Timestamp depends
// only on the candidate and the tables.
func (p *Processor) Process(source string, items []extract.Candidate, now time.Time) []Article {
	out := make([]Article, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		content := it.Content
		if title == "" && strings.TrimSpace(content) == "" {
			continue
		}

		// heuristics read the content when there is any, the title otherwise
		text := content
		if strings.TrimSpace(text) == "" {
			text = title
		}

		if title == "" {
			title = UntitledTitle
		}

		out = append(out, Article{
			ID:        ArticleID(source, it.Link, title),
			Source:    source,
			Title:     title,
			Summary:   summarize(content, title),
			Topic:     p.enricher.Classifier.Classify(text),
			Sentiment: nlp.FormatScore(p.enricher.Scorer.Score(text)),
			Entities:  p.enricher.Recognizer.Extract(text),
			URL:       it.Link,
			Timestamp: now,
		})
	}
	return out
}

// summarize keeps the first summaryTokens tokens of content followed by an
// ellipsis, or returns title when content is blank.
func summarize(content, title string) string {
	tokens := strings.Fields(content)
	if len(tokens) == 0 {
		return title
	}
	if len(tokens) > summaryTokens {
		tokens = tokens[:summaryTokens]
	}
	return strings.Join(tokens, " ") + "..."
}

// ArticleID is the stable identifier of an article.
func ArticleID(source, url, title string) string {
	return hashURL(source + "|" + url + "|" + title)
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
