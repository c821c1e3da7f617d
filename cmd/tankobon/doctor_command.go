package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tankobon/internal/preflight"
)

const doctorLabelWidth = 24

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories and provider connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				label, tone := "OK", ansiGreen
				if !result.Passed {
					label, tone = "FAIL", ansiRed
				}
				line := fmt.Sprintf("  %-*s [%s] %s", doctorLabelWidth, result.Name+":", label, result.Detail)
				fmt.Fprintln(out, colorize(line, tone, color))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}
