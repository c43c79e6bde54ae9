package markup

import (
	"errors"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestParseToleratesMalformedHTML(t *testing.T) {
	html := `<div class="article"><span class="title">Unclosed <b>bold
	<p class="synopsis">Text &bogus; entity</div></div></span>`

	doc, err := Parse([]byte(html))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	items := doc.Select(".article")
	if len(items) != 1 {
		t.Fatalf("expected 1 article, got %d", len(items))
	}
	if got := items[0].TextOf(".title"); !strings.HasPrefix(got, "Unclosed") {
		t.Fatalf("unexpected title text: %q", got)
	}
	if got := items[0].TextOf("p.synopsis"); !strings.Contains(got, "&bogus;") {
		t.Fatalf("unknown entity should be kept literally, got %q", got)
	}
}

func TestParseReaderError(t *testing.T) {
	if _, err := ParseReader(failingReader{}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, err := ParseReader(nil); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for nil reader, got %v", err)
	}
}

func TestElementAccessors(t *testing.T) {
	doc := ParseString(`<ul><li id="a"><a href="/x">  First  </a></li><li id="b">Second</li></ul>`)

	items := doc.Select("li")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if id, ok := items[0].Attr("id"); !ok || id != "a" {
		t.Fatalf("Attr(id) = %q, %v", id, ok)
	}
	if _, ok := items[1].Attr("href"); ok {
		t.Fatalf("missing attribute should report absent")
	}

	link, ok := items[0].First("a")
	if !ok {
		t.Fatalf("expected anchor descendant")
	}
	if link.Text() != "First" {
		t.Fatalf("Text() should be trimmed, got %q", link.Text())
	}
	if !link.Is("a") {
		t.Fatalf("Is(a) should be true")
	}
	if !strings.Contains(items[0].InnerHTML(), `href="/x"`) {
		t.Fatalf("unexpected inner html: %q", items[0].InnerHTML())
	}
	if _, ok := items[1].First("a"); ok {
		t.Fatalf("second item has no anchor")
	}
	if _, ok := items[1].First(""); ok {
		t.Fatalf("empty selector should match nothing")
	}
}

func TestInvalidSelectorMatchesNothing(t *testing.T) {
	doc := ParseString(`<div class="x">hi</div>`)
	if got := doc.Select("div[[["); len(got) != 0 {
		t.Fatalf("invalid selector matched %d elements", len(got))
	}
	if got := doc.Select(".x")[0].TextOf(":::"); got != "" {
		t.Fatalf("invalid child selector matched %q", got)
	}
}
