package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBrowseCmd(opts *globalOptions) *cobra.Command {
	var search string
	var root string

	cmd := &cobra.Command{
		Use:   "browse <path>",
		Short: "List indexed subfolders and files directly under path",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()

			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}

			scanRoot, err := resolveRoot(root)
			if err != nil {
				return err
			}

			cat, err := opts.openCatalog(ctx, settings, scanRoot)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			folders, files, err := cat.Children(ctx, args[0], search)
			if err != nil {
				return mapRunErr(err)
			}

			for _, f := range folders {
				fmt.Printf("%s/\n", f)
			}
			for _, e := range files {
				fmt.Println(e.Filename)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter files by filename substring")
	cmd.Flags().StringVar(&root, "root", "", "Working root whose catalog to browse (default: current directory)")
	return cmd
}
