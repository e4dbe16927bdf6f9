// Command conec is the command-line front end over the semantic core: a
// thin wrapper around pipeline.Compile and the discovery/config helpers
// that surround it. It holds no name resolution, type checking, or flow
// analysis logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "conec",
		Short:         "Cone semantic core driver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCmd(), newDiscoverCmd(), newVersionCmd())
	return root
}
