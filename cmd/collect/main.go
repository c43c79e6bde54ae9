package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/LJTian/NewsHarvest/internal/collector"
	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/logging"
	"github.com/LJTian/NewsHarvest/internal/nlp"
	"github.com/LJTian/NewsHarvest/internal/pipeline"
	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/LJTian/NewsHarvest/internal/source"
	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/spf13/cobra"
)

// collect runs a single harvest and exits; handy for manual runs.
func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	sourcesFile string
	tablesFile  string
	only        []string
	archive     bool
	text        bool
	timeout     time.Duration
	rate        float64
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := options{
		sourcesFile: cfg.SourcesFile,
		tablesFile:  cfg.TablesFile,
		timeout:     cfg.FetchTimeout,
		rate:        cfg.FetchRate,
	}

	root := &cobra.Command{
		Use:           "collect",
		Short:         "Run one harvest over every source and print the articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCollect(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
			return err
		},
	}
	root.Flags().StringVar(&opts.sourcesFile, "sources-file", opts.sourcesFile, "YAML file replacing the built-in sources")
	root.Flags().StringVar(&opts.tablesFile, "tables-file", opts.tablesFile, "YAML file overriding topic, place and sentiment tables")
	root.Flags().StringSliceVar(&opts.only, "source", nil, "harvest only the named source (repeatable)")
	root.Flags().BoolVar(&opts.archive, "archive", false, "also save the harvested articles to Postgres (needs POSTGRES_DSN)")
	root.Flags().BoolVar(&opts.text, "text", false, "print one line per article instead of JSON")
	root.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request fetch timeout")
	root.Flags().Float64Var(&opts.rate, "rate", opts.rate, "requests per second, 0 for unlimited")

	root.AddCommand(&cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			for _, src := range registry.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d profiles\n", src.Name, src.URL, len(src.Profiles))
			}
			return nil
		},
	})
	return root
}

func runCollect(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.NewWriter(stderr, cfg.LogLevel)

	registry, err := loadRegistry(opts)
	if err != nil {
		return err
	}

	tables := nlp.DefaultTables()
	if opts.tablesFile != "" {
		if tables, err = nlp.LoadTables(opts.tablesFile); err != nil {
			return err
		}
	}

	deps := pipeline.Deps{
		Sources:   registry,
		Processor: processor.New(tables),
		Cache:     storage.NewCache(),
		Fetcher: collector.NewHTTPFetcher(
			collector.WithTimeout(opts.timeout),
			collector.WithRate(opts.rate),
			collector.WithLogger(logger),
		),
		Logger: logger,
	}

	if opts.archive {
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("--archive needs POSTGRES_DSN")
		}
		archive, err := storage.NewArchive(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer archive.Close()
		// same channel setup as cmd/api
		for _, src := range registry.All() {
			if _, err := archive.EnsureChannel(src.Name, src.Name, src.URL); err != nil {
				return fmt.Errorf("ensure channel %s: %w", src.Name, err)
			}
		}
		deps.Archiver = archive
	}

	orch := pipeline.New(deps)
	report := orch.Run(ctx)
	articles := orch.Articles()

	if opts.text {
		for _, a := range articles {
			fmt.Fprintf(stdout, "[%s] %s (%s, %s)\n", a.Source, a.Title, a.Topic, a.Sentiment)
		}
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(articles); err != nil {
			return err
		}
	}

	log.SetOutput(stderr)
	log.Printf("collect done: total=%d fallback=%t elapsed=%s",
		report.Total, report.UsedFallback, report.Finished.Sub(report.Started).Round(time.Millisecond))
	return nil
}

// loadRegistry applies --sources-file and then narrows to --source names.
func loadRegistry(opts options) (*source.Registry, error) {
	registry := source.Default()
	if opts.sourcesFile != "" {
		r, err := source.LoadFile(opts.sourcesFile)
		if err != nil {
			return nil, err
		}
		registry = r
	}
	if len(opts.only) == 0 {
		return registry, nil
	}

	picked := make([]source.Source, 0, len(opts.only))
	for _, name := range opts.only {
		src, ok := registry.Get(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		picked = append(picked, src)
	}
	return source.NewRegistry(picked)
}
