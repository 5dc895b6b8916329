package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sortomatic/sortomatic/internal/catalog"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Print per-category row counts from the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()

			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			root, err := resolveRoot(arg)
			if err != nil {
				return err
			}

			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}

			cat, err := opts.openCatalog(ctx, settings, root)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			return printStats(ctx, cat)
		},
	}
}

func printStats(ctx context.Context, cat *catalog.Catalog) error {
	counts, err := cat.CategoryCounts(ctx)
	if err != nil {
		return mapRunErr(err)
	}

	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var total int64
	for _, c := range categories {
		n := counts[c]
		total += n
		fmt.Printf("%-20s %d\n", c, n)
	}
	fmt.Printf("%-20s %d\n", "total", total)
	return nil
}
