// Package extract recovers article candidates from a parsed page using an
// ordered list of selector profiles.
package extract

import (
	"net/url"
	"strings"

	"github.com/LJTian/NewsHarvest/internal/markup"
)

// MaxCandidates bounds how many article elements are inspected per source
// per run.
const MaxCandidates = 5

// titleRuneLimit is the longest title derived from content before it is
// truncated with an ellipsis.
const titleRuneLimit = 60

// Profile names the selectors for the repeating article container and, within
// each container, the title and content sub-elements.
type Profile struct {
	Article string `yaml:"articles" json:"articles"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// GenericProfile is tried after every configured profile has matched nothing.
var GenericProfile = Profile{
	Article: "article, .article, .story, .news-item, .post, .card",
	Title:   "h1, h2, h3, h4, .title, .headline",
	Content: "p, .summary, .synopsis, .description, .excerpt",
}

// Candidate is an article recovered from markup before enrichment. An empty
// Link means the container had no usable anchor.
type Candidate struct {
	Title   string
	Content string
	Link    string
}

// Result is the outcome of a recovery pass.
type Result struct {
	Candidates []Candidate
	// Profile is the profile that produced Candidates; zero when nothing matched.
	Profile Profile
	// Generic is true when Candidates came from GenericProfile.
	Generic bool
	// Matched is the number of container elements Profile selected.
	Matched int
}

// Recover walks profiles in order, then GenericProfile, and returns the
// candidates of the first profile that yields at least one usable one.
// A page that matches nothing returns an empty Result, not an error.
func Recover(doc *markup.Document, baseURL string, profiles []Profile) Result {
	base, _ := url.Parse(baseURL)

	attempts := make([]Profile, 0, len(profiles)+1)
	attempts = append(attempts, profiles...)
	attempts = append(attempts, GenericProfile)

	for i, p := range attempts {
		if p.Article == "" {
			continue
		}
		elements := doc.Select(p.Article)
		if len(elements) == 0 {
			continue
		}

		candidates := make([]Candidate, 0, MaxCandidates)
		for j, el := range elements {
			if j >= MaxCandidates {
				break
			}
			c, ok := recoverElement(el, p, base)
			if !ok {
				continue
			}
			candidates = append(candidates, c)
		}

		if len(candidates) > 0 {
			return Result{
				Candidates: candidates,
				Profile:    p,
				Generic:    i == len(attempts)-1,
				Matched:    len(elements),
			}
		}
	}
	return Result{}
}

// recoverElement extracts title, content and link from one container. It
// reports false when both title and content are empty.
func recoverElement(el *markup.Element, p Profile, base *url.URL) (Candidate, bool) {
	title := el.TextOf(p.Title)
	content := el.TextOf(p.Content)

	if content == "" {
		content = el.Text()
	}

	if title == "" && content != "" {
		title, content = splitFirstSentence(content)
	}

	if title == "" && content == "" {
		return Candidate{}, false
	}

	return Candidate{
		Title:   title,
		Content: content,
		Link:    findLink(el, base),
	}, true
}

// splitFirstSentence derives a title from the text before the first period
// and returns it with the remaining content. Long sentences are cut to
// titleRuneLimit runes plus an ellipsis; the consumed prefix is removed from
// the content either way.
func splitFirstSentence(content string) (string, string) {
	sentence, _, hasPeriod := strings.Cut(content, ".")

	// cut on a byte offset so invalid UTF-8 bytes count as one rune each
	// and stay in the content untouched
	n := 0
	for i := range sentence {
		if n == titleRuneLimit {
			return strings.TrimSpace(content[:i]) + "...", content[i:]
		}
		n++
	}

	rest := content[len(sentence):]
	if hasPeriod {
		rest = rest[1:]
	}
	return strings.TrimSpace(sentence), rest
}

// findLink returns the href of the first anchor inside el (or el itself when
// it is an anchor), resolved against base.
func findLink(el *markup.Element, base *url.URL) string {
	href := ""
	if a, ok := el.First("a[href]"); ok {
		href, _ = a.Attr("href")
	} else if el.Is("a[href]") {
		href, _ = el.Attr("href")
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	return resolve(base, href)
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() || base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
