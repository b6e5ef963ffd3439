package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/crawl"
	"github.com/use-agent/leninka/extract"
	"github.com/use-agent/leninka/scraper"
	"github.com/use-agent/leninka/storage"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leninka",
		Short: "Crawl CyberLeninka search results into a JSON or CSV file",
		Long: `leninka drives a headless Chromium through the first N pages of a
CyberLeninka search listing and writes every result (title, authors, link)
to a single file.

The file is written only when every page succeeded. Any failure leaves an
existing output file untouched.

Exit status: 0 when the crawl completed, 1 when the configuration is invalid
or the crawl failed. The reference tool always exits 0 and only logs the
error; the non-zero status is specific to leninka.

Configuration is read from --config (YAML), then .env and LENINKA_*
environment variables, then the flags below.`,
		Example: `  # Crawl the default five pages for "NodeJS"
  leninka

  # Ten pages of a different query, as CSV
  leninka --query golang --pages 10 --format csv --out golang.csv

  # Watch the browser
  leninka --headless=false --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				// Logging is not configured yet.
				cmd.PrintErrln("error:", err)
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringP("config", "c", "", "YAML config file")
	fl.IntP("pages", "n", 5, "number of listing pages to crawl")
	fl.StringP("query", "q", "NodeJS", "search term")
	fl.StringP("out", "o", "articles.json", "output file path")
	fl.String("format", "json", "output format (json, csv)")
	fl.Bool("headless", true, "run the browser headless")
	fl.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// resolveConfig layers defaults, the optional config file, the environment
// and explicitly set flags, in that order, and validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	fl := cmd.Flags()

	var cfg *config.Config
	if path, _ := fl.GetString("config"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}

	// Only flags the user actually set replace file and env values.
	if fl.Changed("pages") {
		cfg.Crawl.Pages, _ = fl.GetInt("pages")
	}
	if fl.Changed("query") {
		cfg.Crawl.Query, _ = fl.GetString("query")
	}
	if fl.Changed("out") {
		cfg.Output.Path, _ = fl.GetString("out")
	}
	if fl.Changed("format") {
		cfg.Output.Format, _ = fl.GetString("format")
	}
	if fl.Changed("headless") {
		cfg.Browser.Headless, _ = fl.GetBool("headless")
	}
	if fl.Changed("log-level") {
		cfg.Log.Level, _ = fl.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := initLogger(cfg.Log)

	ex, err := extract.New(cfg.Extract.BaseDomain, extract.SelectorsFrom(cfg.Extract))
	if err != nil {
		logger.Error("invalid selectors", "error", err)
		return err
	}

	o := crawl.New(
		scraper.NewManager(scraper.NewRodLauncher(cfg.Browser, logger), logger),
		scraper.NewPageFetcher(cfg.Crawl, logger),
		ex,
		storage.NewFileWriter(cfg.Output.Path, cfg.Output.Format),
		crawl.WithPages(cfg.Crawl.Pages),
		crawl.WithLogger(logger),
	)

	// The orchestrator has already logged the failure with its code.
	_, err = o.Run(ctx)
	return err
}
