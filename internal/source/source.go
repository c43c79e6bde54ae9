// Package source is the static table of harvested news sites.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LJTian/NewsHarvest/internal/extract"
)

// Source is one harvested site with its ordered extraction profiles.
type Source struct {
	Name     string            `yaml:"name" json:"name"`
	URL      string            `yaml:"url" json:"url"`
	Profiles []extract.Profile `yaml:"profiles" json:"profiles"`
}

// Registry is an immutable, ordered set of sources with unique names.
type Registry struct {
	sources []Source
	byName  map[string]int
}

// NewRegistry validates sources and keeps a private copy.
func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{
		sources: make([]Source, 0, len(sources)),
		byName:  make(map[string]int, len(sources)),
	}
	for _, s := range sources {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, errors.New("source: empty name")
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("source: duplicate name %q", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("source %s: invalid url %q", s.Name, s.URL)
		}
		s.Profiles = append([]extract.Profile(nil), s.Profiles...)
		r.byName[s.Name] = len(r.sources)
		r.sources = append(r.sources, s)
	}
	return r, nil
}

// All returns the sources in registry order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	for i, s := range r.sources {
		s.Profiles = append([]extract.Profile(nil), s.Profiles...)
		out[i] = s
	}
	return out
}

// Get looks a source up by name.
func (r *Registry) Get(name string) (Source, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Source{}, false
	}
	s := r.sources[i]
	s.Profiles = append([]extract.Profile(nil), s.Profiles...)
	return s, true
}

// Len reports the number of sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadFile reads a YAML list of sources:
//
//	sources:
//	  - name: Example
//	    url: https://example.com/news
//	    profiles:
//	      - {articles: ".story", title: "h2", content: "p"}
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	var f sourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", path, err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("source: %s lists no sources", path)
	}
	return NewRegistry(f.Sources)
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(defaultSources)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultSources = []Source{
	{
		Name: "Times of India",
		URL:  "https://timesofindia.indiatimes.com/india",
		Profiles: []extract.Profile{
			{Article: ".main-content article", Title: "span.title", Content: "p.synopsis"},
		},
	},
	{
		Name: "Economic Times",
		URL:  "https://economictimes.indiatimes.com/news/india",
		Profiles: []extract.Profile{
			{Article: ".article", Title: ".title", Content: ".synopsis"},
			{Article: ".eachStory", Title: "h3", Content: "p"},
		},
	},
	{
		Name: "Hindustan Times",
		URL:  "https://www.hindustantimes.com/india-news",
		Profiles: []extract.Profile{
			{Article: ".hdg3", Title: "h3.hdg3", Content: ".sortDec"},
			{Article: ".cartHolder", Title: ".hdg3", Content: ".sortDec"},
		},
	},
	{
		Name: "News18",
		URL:  "https://www.news18.com/india/",
		Profiles: []extract.Profile{
			{Article: ".jsx-3621759782", Title: ".jsx-3621759782 h4", Content: ".jsx-3621759782 p"},
		},
	},
	{
		Name: "India Today",
		URL:  "https://www.indiatoday.in/india",
		Profiles: []extract.Profile{
			{Article: ".B1S3_content__wrap__9mSB6", Title: ".B1S3_story__title__9qn_v", Content: ".B1S3_story__shortcontent__5kVZf"},
		},
	},
}
