package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"tankobon/internal/daemonrun"
	"tankobon/internal/metadata"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List enabled providers in query order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ids := cfg.Providers.Enabled()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No providers enabled")
				return nil
			}
			slices.SortStableFunc(ids, func(a, b metadata.ProviderID) int {
				return cfg.Providers.Get(a).Priority - cfg.Providers.Get(b).Priority
			})
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				section := cfg.Providers.Get(id)
				rows = append(rows, []string{
					string(id),
					strconv.Itoa(section.Priority),
					section.MediaType,
					section.NameMatchingMode,
					availability(id),
					section.BaseURL,
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Provider", "Priority", "Media", "Matching", "Available", "Base URL"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func availability(id metadata.ProviderID) string {
	if _, ok := daemonrun.Factories[id]; ok {
		return "yes"
	}
	return "no"
}
