package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rd-card-scraper/internal/app"
	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/scraper"
	"rd-card-scraper/internal/storage"
)

const defaultConfigPath = "configs/config.yaml"

var (
	cfgFile  string
	dataDir  string
	verbose  bool
	force    bool
	noImages bool
	since    int
	mode     string
	timeout  time.Duration
	useRod   bool
)

var rootCmd = &cobra.Command{
	Use:   "rd-card-scraper",
	Short: "Rush Duel card list scraper for ntucgm.blogspot.com",
	Long: `rd-card-scraper finds Rush Duel card list posts on ntucgm.blogspot.com,
parses every card into <data>/<SET>/cards.json and keeps an incremental state
so that later runs only fetch new or changed posts.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file path (default "+defaultConfigPath+" if present)")
	pf.StringVar(&dataDir, "data-dir", "", "output directory (overrides storage.data_dir)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&force, "force", false, "re-scrape and re-download even when unchanged")
	pf.BoolVar(&noImages, "no-images", false, "skip image downloads")
	pf.IntVar(&since, "since", 0, "oldest year to crawl (overrides source.since_year)")
	pf.StringVar(&mode, "mode", "", "discovery mode: listing or sitemap")
	pf.DurationVar(&timeout, "timeout", 0, "abort the run after this duration (0 = no limit)")
	pf.BoolVar(&useRod, "rod", false, "fetch posts through headless Chrome")

	rootCmd.AddCommand(scrapeAllCmd, updateCmd, scrapeURLCmd, discoverCmd, checkCmd, summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig конфиг с учётом флагов командной строки
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if since > 0 {
		cfg.Source.SinceYear = since
	}
	if mode != "" {
		cfg.Source.Mode = mode
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	if noImages {
		cfg.Images.Enabled = false
	}
	if useRod {
		cfg.Rod.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// runtime собранные зависимости одной команды
type runtime struct {
	cfg     *config.Config
	logger  *observability.Logger
	fetcher *fetcher.Fetcher
	state   storage.StateStore
	orch    *app.Orchestrator
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)

	selectors, err := cfg.LoadSelectors()
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to load selectors: %w", err)
	}

	f := fetcher.NewFetcher(cfg, logger)
	if cfg.Rod.Enabled {
		renderer, err := fetcher.NewRodRenderer(cfg, logger)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		f.WithRenderer(renderer)
	}

	state, err := app.OpenStateStore(cfg, logger)
	if err != nil {
		_ = f.Close()
		_ = logger.Close()
		return nil, err
	}

	orch := app.NewOrchestrator(cfg, logger, f, scraper.NewScraper(selectors), state, app.Options{
		Force:          force,
		DownloadImages: cfg.Images.Enabled,
	})

	logger.Debug("Runtime ready",
		"run_id", orch.RunID(),
		"data_dir", cfg.Storage.DataDir,
		"driver", cfg.Storage.Driver,
		"mode", cfg.Source.Mode,
	)

	return &runtime{cfg: cfg, logger: logger, fetcher: f, state: state, orch: orch}, nil
}

func (r *runtime) Close() {
	if err := r.state.Close(); err != nil {
		r.logger.Error("Failed to close state store", "error", err.Error())
	}
	if err := r.fetcher.Close(); err != nil {
		r.logger.Error("Failed to close browser", "error", err.Error())
	}
	_ = r.logger.Close()
}
