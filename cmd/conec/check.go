package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dccarter/cone/internal/config"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/dccarter/cone/internal/pipeline"
)

// frontend turns one source file's raw text into a parsed program. The
// lexer/parser that would normally fill this in is out of this core's
// scope; check still wires up config, the log, and
// pipeline.Compile end to end so a real frontend can be dropped in later
// without touching any of this command's plumbing.
var frontend = func(source *logger.Source) (*ir.ProgramNode, error) {
	return nil, fmt.Errorf("no frontend wired into this build: %s was read but not parsed", source.PrettyPath)
}

func newCheckCmd() *cobra.Command {
	var ptrSize int

	cmd := &cobra.Command{
		Use:   "check <paths...>",
		Short: "Run name resolution, type checking, and flow analysis over sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.LoadEnvOverlay(config.Default())
			if ptrSize != 0 {
				opts.PtrSize = config.PtrSize(ptrSize)
			}

			log := logger.NewStderrLog()
			for i, path := range args {
				contents, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				source := &logger.Source{
					Index:      uint32(i),
					KeyPath:    path,
					PrettyPath: path,
					Contents:   string(contents),
				}

				prog, err := frontend(source)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					continue
				}

				fileOpts := opts
				fileOpts.SourcePath = path
				ctx := pipeline.NewContext(fileOpts, log)
				pipeline.Compile(ctx, prog, source)
			}

			if log.HasErrors() {
				return fmt.Errorf("%d error(s)", log.ErrorCount())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&ptrSize, "ptrsize", 0, "override the address width (4 or 8); defaults to config.Default()/env")
	return cmd
}
