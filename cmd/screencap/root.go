package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "screencap",
		Short:         "Render contact sheets of video files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.stderr == nil {
				ctx.stderr = cmd.ErrOrStderr()
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&ctx.count, "count", "n", 0, "Number of frames to sample (default 9)")
	flags.IntVar(&ctx.width, "width", 0, "Maximum output width in pixels")
	flags.IntVar(&ctx.height, "height", 0, "Maximum output height in pixels")
	flags.StringVar(&ctx.tiling, "tiling", "", "Grid mode: legacy or exact")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level for diagnostics on stderr")

	rootCmd.AddCommand(newSheetCommand(ctx))
	rootCmd.AddCommand(newDirCommand(ctx))

	return rootCmd
}
