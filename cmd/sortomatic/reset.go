package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [path]",
		Short: "Drop and recreate the catalog",
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
			settings.ResetDB = true

			cat, err := opts.openCatalog(ctx, settings, root)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			fmt.Println("catalog reset")
			return nil
		},
	}
}
