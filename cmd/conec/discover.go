package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dccarter/cone/internal/discover"
)

func newDiscoverCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "discover <glob>",
		Short: "Expand a **-glob of .cone sources into an ordered file list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := discover.Files(root, args[0])
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory the glob is evaluated against")
	return cmd
}
