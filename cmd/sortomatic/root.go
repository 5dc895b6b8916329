package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sortomatic/sortomatic/internal/cache"
	"github.com/sortomatic/sortomatic/internal/catalog"
	"github.com/sortomatic/sortomatic/internal/config"
	"github.com/sortomatic/sortomatic/internal/pipeline"
	"github.com/sortomatic/sortomatic/internal/sortoerr"
)

// globalOptions holds the persistent flags shared by every subcommand,
// mirroring dupedog's single dedupeOptions struct but split across the
// root command since sortomatic has more than one verb.
type globalOptions struct {
	verbose    bool
	noProgress bool
	reset      bool
	threads    int
	configDir  string
	cacheDir   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "sortomatic",
		Short:         "Index, categorize, and hash files without moving them",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	root.PersistentFlags().BoolVar(&opts.reset, "reset", false, "Drop and recreate the catalog before running")
	root.PersistentFlags().IntVar(&opts.threads, "threads", 0, "Override max_workers (0 = use config default)")
	root.PersistentFlags().StringVar(&opts.configDir, "config", defaultConfigDir(), "Config directory")
	root.PersistentFlags().StringVar(&opts.cacheDir, "cache", "", "Hash cache directory (empty disables caching)")

	root.AddCommand(newScanCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newResetCmd(opts))
	root.AddCommand(newBrowseCmd(opts))

	return root
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sortomatic"
	}
	return filepath.Join(home, ".config", "sortomatic")
}

// loadSettings merges config files with the CLI-flag overrides this run
// was invoked with.
func (o *globalOptions) loadSettings() (config.Settings, error) {
	var overrides config.Overrides
	if o.threads > 0 {
		overrides.MaxWorkers = &o.threads
	}
	if o.reset {
		overrides.Reset = &o.reset
	}

	settings, _, err := config.Load(o.configDir, overrides)
	if err != nil {
		return config.Settings{}, sortoerr.NewFatal("load configuration", err)
	}
	return settings, nil
}

// openCatalog opens (and, if requested, resets) the catalog database
// embedded under root, per spec.md §6's on-disk layout:
// <root>/.sortomatic/sortomatic.db.
func (o *globalOptions) openCatalog(ctx context.Context, settings config.Settings, root string) (*catalog.Catalog, error) {
	dbPath := catalogPath(root)

	cat, err := catalog.Open(dbPath)
	if err != nil {
		return nil, sortoerr.NewFatal("open catalog", err)
	}
	if settings.ResetDB {
		if err := cat.Reset(ctx); err != nil {
			_ = cat.Close()
			return nil, sortoerr.NewFatal("reset catalog", err)
		}
	}
	return cat, nil
}

// catalogPath resolves the embedded-catalog path for a working root.
func catalogPath(root string) string {
	return filepath.Join(root, ".sortomatic", "sortomatic.db")
}

// resolveRoot returns path if non-empty, else the current working
// directory — matching the original's scan_categorize/scan_hash/stats/reset
// defaulting to Path.cwd() when no root argument is given.
func resolveRoot(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", sortoerr.NewFatal("resolve working directory", err)
	}
	return wd, nil
}

// openHashCache opens the byte-range memoization cache at --cache, or
// returns a disabled cache when the flag was left empty.
func (o *globalOptions) openHashCache() (*cache.Cache, error) {
	path := ""
	if o.cacheDir != "" {
		path = filepath.Join(o.cacheDir, "hashes.db")
	}
	c, err := cache.Open(path)
	if err != nil {
		return nil, sortoerr.NewFatal("open hash cache", err)
	}
	return c, nil
}

// newManager wires a Manager from the resolved settings, an open catalog,
// and an open hash cache; the caller owns closing both.
func newManager(settings config.Settings, cat *catalog.Catalog, hashCache *cache.Cache, showProgress bool) *pipeline.Manager {
	return pipeline.New(cat, settings, hashCache, showProgress)
}

// interruptContext returns a context canceled on SIGINT/SIGTERM, and the
// function that stops the signal relay; mapRunErr turns the resulting
// context.Canceled into the CLI's interrupt exit code —
// spec.md §4.5's "process exits without waiting for worker threads".
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func mapRunErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return sortoerr.NewInterrupt()
	}
	return sortoerr.NewFatal("run failed", err)
}
