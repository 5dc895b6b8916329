package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sortomatic/sortomatic/internal/executor"
	"github.com/sortomatic/sortomatic/internal/pipeline"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run indexing, categorization, or hashing passes over a catalog",
	}

	cmd.AddCommand(newScanAllCmd(opts))
	cmd.AddCommand(newScanIndexCmd(opts))
	cmd.AddCommand(newScanCategoryCmd(opts))
	cmd.AddCommand(newScanHashCmd(opts))

	return cmd
}

// withManager opens settings, catalog, and hash cache, hands a Manager to
// fn, and closes everything on the way out — every scan subcommand shares
// this setup/teardown. root selects the per-working-root catalog at
// <root>/.sortomatic/sortomatic.db.
func (o *globalOptions) withManager(root string, fn func(context.Context, *pipeline.Manager) (executor.Stats, error)) error {
	ctx, cancel := interruptContext()
	defer cancel()

	settings, err := o.loadSettings()
	if err != nil {
		return err
	}

	root, err = resolveRoot(root)
	if err != nil {
		return err
	}

	cat, err := o.openCatalog(ctx, settings, root)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	hashCache, err := o.openHashCache()
	if err != nil {
		return err
	}
	defer func() { _ = hashCache.Close() }()

	m := newManager(settings, cat, hashCache, !o.noProgress)
	stats, err := fn(ctx, m)
	if err != nil {
		return mapRunErr(err)
	}
	fmt.Printf("done: %d entries processed\n", stats.Count)
	return nil
}

func newScanAllCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all <path>",
		Short: "Index, categorize, and hash every file under path in one pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := args[0]
			return opts.withManager(root, func(ctx context.Context, m *pipeline.Manager) (executor.Stats, error) {
				return m.RunAll(ctx, root)
			})
		},
	}
}

func newScanIndexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <path>",
		Short: "Walk path and insert new catalog rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := args[0]
			return opts.withManager(root, func(ctx context.Context, m *pipeline.Manager) (executor.Stats, error) {
				return m.RunIndex(ctx, root)
			})
		},
	}
}

func newScanCategoryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "category",
		Short: "Categorize catalog rows with category IS NULL",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return opts.withManager("", func(ctx context.Context, m *pipeline.Manager) (executor.Stats, error) {
				return m.RunCategorize(ctx)
			})
		},
	}
}

func newScanHashCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Hash file rows with full_hash IS NULL",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return opts.withManager("", func(ctx context.Context, m *pipeline.Manager) (executor.Stats, error) {
				return m.RunHash(ctx)
			})
		},
	}
}
