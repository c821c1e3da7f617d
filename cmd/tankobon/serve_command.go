package main

import (
	"github.com/spf13/cobra"

	"tankobon/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tankobon daemon and HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var level string
			if ctx.logLevelFlag != nil {
				level = *ctx.logLevelFlag
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: level})
		},
	}
}
