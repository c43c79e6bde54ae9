package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/NewsHarvest/internal/api"
	"github.com/LJTian/NewsHarvest/internal/collector"
	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/logging"
	"github.com/LJTian/NewsHarvest/internal/nlp"
	"github.com/LJTian/NewsHarvest/internal/pipeline"
	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/LJTian/NewsHarvest/internal/scheduler"
	"github.com/LJTian/NewsHarvest/internal/source"
	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	registry := source.Default()
	if cfg.SourcesFile != "" {
		r, err := source.LoadFile(cfg.SourcesFile)
		if err != nil {
			log.Fatalf("load sources failed: %v", err)
		}
		registry = r
	}

	tables := nlp.DefaultTables()
	if cfg.TablesFile != "" {
		t, err := nlp.LoadTables(cfg.TablesFile)
		if err != nil {
			log.Fatalf("load tables failed: %v", err)
		}
		tables = t
	}
	proc := processor.New(tables)

	deps := pipeline.Deps{
		Sources:   registry,
		Processor: proc,
		Cache:     storage.NewCache(),
		Fetcher: collector.NewHTTPFetcher(
			collector.WithTimeout(cfg.FetchTimeout),
			collector.WithRate(cfg.FetchRate),
			collector.WithLogger(logger.With("component", "collector")),
		),
		Logger:     logger.With("component", "pipeline"),
		RunTimeout: cfg.RunTimeout,
	}

	// the archive is write-only from the pipeline's side and never feeds the cache
	var history api.Historian
	if cfg.PostgresDSN != "" {
		archive, err := storage.NewArchive(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("init archive failed: %v", err)
		}
		defer archive.Close()

		// make sure every source has a channel row
		for _, src := range registry.All() {
			if _, err := archive.EnsureChannel(src.Name, src.Name, src.URL); err != nil {
				log.Fatalf("ensure channel %s failed: %v", src.Name, err)
			}
		}
		deps.Archiver = archive
		history = archive
	}

	orch := pipeline.New(deps)

	s, err := scheduler.New(cfg.CronSpec, orch, logger.With("component", "scheduler"))
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Logger(), api.Recovery(logger.With("component", "api")), api.CORS(cfg.CORSOrigins))
	// optional site-wide Basic Auth; /health stays open
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(orch, history, proc.Enricher().Classifier.Topics())
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting api server at %s ...", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		log.Printf("warn: scheduler stop: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("warn: server shutdown: %v", err)
	}

	// wait for an in-flight run, but not past the shutdown deadline
	done := make(chan struct{})
	go func() {
		orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Printf("warn: harvest run still in progress at exit")
	}
}
