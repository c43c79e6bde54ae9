package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LJTian/NewsHarvest/internal/collector"
	"github.com/LJTian/NewsHarvest/internal/extract"
	"github.com/LJTian/NewsHarvest/internal/markup"
	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/LJTian/NewsHarvest/internal/source"
	"github.com/LJTian/NewsHarvest/internal/storage"
)

// Archiver receives every run's real articles. Fallback articles are never
// archived.
type Archiver interface {
	SaveBatch(items []processor.Article) error
}

// Deps wires the collaborators of an Orchestrator. Sources, Fetcher and
// Cache are required; the rest default.
type Deps struct {
	Sources   *source.Registry
	Fetcher   collector.PageFetcher
	Processor *processor.Processor
	Cache     *storage.Cache
	Archiver  Archiver
	Logger    *slog.Logger
	Now       func() time.Time
	// RunTimeout bounds a RunOnce run; zero means no bound.
	RunTimeout time.Duration
}

// SourceReport describes what one source contributed to a run.
type SourceReport struct {
	Articles int    `json:"articles"`
	Matched  int    `json:"matched"`
	Profile  string `json:"profile,omitempty"`
	Generic  bool   `json:"generic,omitempty"`
	Status   int    `json:"status,omitempty"`
	Err      string `json:"error,omitempty"`
}

// RunReport summarizes one run.
type RunReport struct {
	Started      time.Time               `json:"started"`
	Finished     time.Time               `json:"finished"`
	PerSource    map[string]SourceReport `json:"perSource"`
	Total        int                     `json:"total"`
	UsedFallback bool                    `json:"usedFallback"`
}

// Orchestrator runs the harvest over every registered source and publishes
// the result into the cache.
type Orchestrator struct {
	sources    *source.Registry
	fetcher    collector.PageFetcher
	processor  *processor.Processor
	cache      *storage.Cache
	archiver   Archiver
	logger     *slog.Logger
	now        func() time.Time
	runTimeout time.Duration

	// running is held by a RunOnce run for its whole duration.
	running sync.Mutex
	wg      sync.WaitGroup
}

// New builds an orchestrator.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		sources:    deps.Sources,
		fetcher:    deps.Fetcher,
		processor:  deps.Processor,
		cache:      deps.Cache,
		archiver:   deps.Archiver,
		logger:     deps.Logger,
		now:        deps.Now,
		runTimeout: deps.RunTimeout,
	}
	if o.sources == nil {
		o.sources = source.Default()
	}
	if o.processor == nil {
		o.processor = processor.NewDefault()
	}
	if o.cache == nil {
		o.cache = storage.NewCache()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run harvests every source in registry order, replaces the cache and
// returns a report. It never panics and never fails: a broken source
// contributes nothing, and a run that collects nothing publishes the
// fallback set.
func (o *Orchestrator) Run(ctx context.Context) RunReport {
	report := RunReport{
		Started:   o.now(),
		PerSource: make(map[string]SourceReport, o.sources.Len()),
	}
	o.logger.Info("harvest run started", "sources", o.sources.Len())

	var collected []processor.Article
	for _, src := range o.sources.All() {
		articles, sr := o.harvestSource(ctx, src)
		report.PerSource[src.Name] = sr
		collected = append(collected, articles...)
	}

	if len(collected) > 0 && o.archiver != nil {
		if err := o.archiver.SaveBatch(collected); err != nil {
			o.logger.Error("archive batch failed", "count", len(collected), "err", err)
		}
	}

	if len(collected) == 0 {
		o.logger.Warn("no articles harvested from any source, serving fallback set")
		collected = storage.FallbackArticles(o.now())
		report.UsedFallback = true
	}
	o.cache.Replace(collected)

	report.Total = len(collected)
	report.Finished = o.now()
	o.logger.Info("harvest run done",
		"count", report.Total,
		"fallback", report.UsedFallback,
		"elapsed", report.Finished.Sub(report.Started))
	return report
}

// RunOnce starts a run in the background and reports whether it did. A
// trigger that arrives while a previous RunOnce run is in flight is skipped.
func (o *Orchestrator) RunOnce() bool {
	if !o.running.TryLock() {
		o.logger.Info("harvest run already in progress, skipping trigger")
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.running.Unlock()

		ctx := context.Background()
		if o.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
			defer cancel()
		}
		o.Run(ctx)
	}()
	return true
}

// Wait blocks until background runs started by RunOnce have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Articles returns the current article collection. It is never empty.
func (o *Orchestrator) Articles() []processor.Article {
	return o.cache.Current()
}

// Cache exposes the cache the orchestrator publishes into.
func (o *Orchestrator) Cache() *storage.Cache {
	return o.cache
}

// Sources exposes the registry the orchestrator harvests.
func (o *Orchestrator) Sources() *source.Registry {
	return o.sources
}

var errPanic = errors.New("pipeline: source panicked")

// harvestSource runs fetch, recovery and enrichment for one source. Any
// failure, panics included, is logged and yields no articles.
func (o *Orchestrator) harvestSource(ctx context.Context, src source.Source) (articles []processor.Article, sr SourceReport) {
	log := o.logger.With("source", src.Name)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", errPanic, r)
			log.Error("source failed", "err", err)
			articles = nil
			sr = SourceReport{Err: err.Error()}
		}
	}()

	body, err := o.fetcher.FetchPage(ctx, src.URL)
	if err != nil {
		status := collector.StatusCode(err)
		log.Error("fetch failed", "status", status, "err", err)
		return nil, SourceReport{Status: status, Err: err.Error()}
	}

	doc, err := markup.Parse(body)
	if err != nil {
		log.Error("parse failed", "err", err)
		return nil, SourceReport{Err: err.Error()}
	}

	res := extract.Recover(doc, src.URL, src.Profiles)
	if len(res.Candidates) == 0 {
		selectors := make([]string, 0, len(src.Profiles)+1)
		for _, p := range src.Profiles {
			selectors = append(selectors, p.Article)
		}
		selectors = append(selectors, extract.GenericProfile.Article)
		log.Warn("no articles recovered", "selectors", selectors)
		return nil, SourceReport{}
	}

	articles = o.processor.Process(src.Name, res.Candidates, o.now())
	log.Info("source done",
		"profile", res.Profile.Article,
		"generic", res.Generic,
		"matched", res.Matched,
		"count", len(articles))
	return articles, SourceReport{
		Articles: len(articles),
		Matched:  res.Matched,
		Profile:  res.Profile.Article,
		Generic:  res.Generic,
	}
}
