// Package markup wraps raw HTML into a queryable tree with CSS selector support.
//
// Parsing is lenient: the underlying x/net/html tree builder recovers from
// unclosed tags, stray end tags and unknown entities the same way browsers do,
// so structural problems never surface as errors.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrParse is returned when the input could not be read into a document.
var ErrParse = errors.New("markup: parse failed")

// Document is a parsed page.
type Document struct {
	doc *goquery.Document
}

// Element is a single node of a Document.
type Element struct {
	sel *goquery.Selection
}

// Parse builds a Document from raw page bytes.
func Parse(raw []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(raw))
}

// ParseReader builds a Document from r. The only failure is a read error.
func ParseReader(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrParse)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{doc: doc}, nil
}

// ParseString builds a Document from an in-memory string; it never fails.
func ParseString(s string) *Document {
	doc, err := ParseReader(strings.NewReader(s))
	if err != nil {
		// strings.Reader never returns a read error; an empty document
		// matches nothing
		return &Document{}
	}
	return doc
}

// Select returns every element matching selector. An invalid selector
// matches nothing.
func (d *Document) Select(selector string) []*Element {
	if d == nil || d.doc == nil {
		return nil
	}
	return wrap(d.doc.Find(selector))
}

// HTML renders the whole document back to markup.
func (d *Document) HTML() string {
	if d == nil || d.doc == nil {
		return ""
	}
	out, err := d.doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// Text returns the trimmed concatenated text of the element and its descendants.
func (e *Element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

// InnerHTML returns the markup of the element's children.
func (e *Element) InnerHTML() string {
	out, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return out
}

// Attr reports the named attribute and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// Is reports whether the element itself matches selector.
func (e *Element) Is(selector string) bool {
	return e.sel.Is(selector)
}

// First returns the first descendant matching selector.
func (e *Element) First(selector string) (*Element, bool) {
	if selector == "" {
		return nil, false
	}
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &Element{sel: found}, true
}

// Select returns every descendant matching selector.
func (e *Element) Select(selector string) []*Element {
	return wrap(e.sel.Find(selector))
}

// TextOf returns the trimmed text of the first descendant matching selector,
// or "" when nothing matches.
func (e *Element) TextOf(selector string) string {
	if found, ok := e.First(selector); ok {
		return found.Text()
	}
	return ""
}

func wrap(sel *goquery.Selection) []*Element {
	out := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out
}
