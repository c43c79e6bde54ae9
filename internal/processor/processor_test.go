package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/LJTian/NewsHarvest/internal/extract"
	"github.com/LJTian/NewsHarvest/internal/markup"
)

func TestHashURLDeterministicAndDistinct(t *testing.T) {
	url1 := "https://example.com/a"
	url2 := "https://example.com/b"

	h1a := hashURL(url1)
	h1b := hashURL(url1)
	h2 := hashURL(url2)

	if h1a != h1b {
		t.Fatalf("hashURL not deterministic: %q vs %q", h1a, h1b)
	}
	if h1a == h2 {
		t.Fatalf("hashURL should differ for different URLs: %q", h1a)
	}
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("w ", 45)
	got := summarize(long, "T")
	if got != strings.TrimSpace(strings.Repeat("w ", 30))+"..." {
		t.Fatalf("unexpected long summary: %q", got)
	}

	if got := summarize("  two   words ", "T"); got != "two words..." {
		t.Fatalf("unexpected short summary: %q", got)
	}
	if got := summarize("   ", "Only title"); got != "Only title" {
		t.Fatalf("blank content should fall back to title, got %q", got)
	}
}

func TestProcessFarmersScenario(t *testing.T) {
	html := `<div class="article"><span class="title">Farmers adopt new crop tech</span>` +
		`<p class="synopsis">Farmers across Punjab are adopting new crop technology to boost harvest yields amid changing weather.</p></div>`
	profile := extract.Profile{Article: ".article", Title: ".title", Content: ".synopsis"}

	res := extract.Recover(markup.ParseString(html), "https://economictimes.indiatimes.com/news/india", []extract.Profile{profile})
	out := NewDefault().Process("Economic Times", res.Candidates, time.Now())

	if len(out) != 1 {
		t.Fatalf("expected 1 article, got %d", len(out))
	}
	a := out[0]
	if a.Topic != "agriculture" {
		t.Fatalf("Topic = %q, want agriculture", a.Topic)
	}
	if a.Title != "Farmers adopt new crop tech" {
		t.Fatalf("unexpected title: %q", a.Title)
	}
	found := false
	for _, s := range a.Entities.States {
		if s == "punjab" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected punjab in states, got %v", a.Entities.States)
	}
	if a.Source != "Economic Times" || a.URL != "" {
		t.Fatalf("unexpected source/url: %q %q", a.Source, a.URL)
	}
	if !strings.HasSuffix(a.Summary, "...") {
		t.Fatalf("summary should end with ellipsis: %q", a.Summary)
	}
}

func TestProcessPlaceholderAndTitleText(t *testing.T) {
	p := NewDefault()
	now := time.Now()

	items := []extract.Candidate{
		{Title: "", Content: "Cricket tournament starts"},
		{Title: "Stock market rally", Content: ""},
		{Title: "  ", Content: "  "},
	}
	out := p.Process("src", items, now)
	if len(out) != 2 {
		t.Fatalf("expected blank candidate to be dropped, got %d articles", len(out))
	}

	if out[0].Title != UntitledTitle {
		t.Fatalf("empty title should use placeholder, got %q", out[0].Title)
	}
	if out[0].Topic != "sports" {
		t.Fatalf("content should drive topic, got %q", out[0].Topic)
	}

	if out[1].Summary != "Stock market rally" {
		t.Fatalf("empty content should summarize to title, got %q", out[1].Summary)
	}
	if out[1].Topic != "business" {
		t.Fatalf("title should drive topic when content is empty, got %q", out[1].Topic)
	}
	if !out[1].Timestamp.Equal(now) {
		t.Fatalf("timestamp not propagated")
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	html := `<div class="article"><h3 class="title">Minister wins election</h3><p class="synopsis">The party celebrates a strong win in Gujarat.</p><a href="/a">x</a></div>` +
		`<div class="article"><p class="synopsis">Markets surge. Investors are happy.</p></div>`
	profile := extract.Profile{Article: ".article", Title: ".title", Content: ".synopsis"}

	run := func() []Article {
		doc := markup.ParseString(html)
		res := extract.Recover(doc, "https://example.com", []extract.Profile{profile})
		return NewDefault().Process("Example", res.Candidates, time.Now())
	}

	first := run()
	second := run()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 articles per run, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		b.Timestamp = a.Timestamp
		if a.ID != b.ID || a.Title != b.Title || a.Summary != b.Summary || a.Topic != b.Topic ||
			a.Sentiment != b.Sentiment || a.URL != b.URL ||
			strings.Join(a.Entities.States, ",") != strings.Join(b.Entities.States, ",") ||
			strings.Join(a.Entities.People, ",") != strings.Join(b.Entities.People, ",") {
			t.Fatalf("article %d differs between runs:\n%+v\n%+v", i, a, b)
		}
	}
}
