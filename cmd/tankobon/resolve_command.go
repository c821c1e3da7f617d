package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tankobon/internal/daemonrun"
	"tankobon/internal/jobs"
	"tankobon/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var flags queryFlags
	var format string

	cmd := &cobra.Command{
		Use:   "resolve <series-id>",
		Short: "Resolve series metadata in-process and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := validateFormat(format)
			if err != nil {
				return err
			}
			seriesID, query, err := flags.query(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			svc, err := daemonrun.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			flow := jobs.NewEventFlow()
			jobID, err := svc.Tracker.RegisterMetadataJob(cmd.Context(), seriesID, flow)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				if outputFormat != formatText {
					return
				}
				fmt.Fprintf(out, "Job %s\n", jobID)
				printEvents(cmd.Context(), out, flow)
			}()

			result, resolveErr := svc.Resolver.Resolve(cmd.Context(), seriesID, query, flow)
			<-printed
			if resolveErr != nil {
				return fmt.Errorf("resolve %s: %w", seriesID, resolveErr)
			}
			if outputFormat != formatText {
				return writeStructured(cmd, outputFormat, result)
			}
			printResultSummary(out, result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, or yaml")
	return cmd
}

func printEvents(ctx context.Context, out io.Writer, flow *jobs.EventFlow) {
	for event := range flow.Subscribe(ctx) {
		fmt.Fprintf(out, "  %s\n", jobs.Describe(event))
	}
}

func printResultSummary(out io.Writer, result *resolver.Result) {
	if !result.Matched() {
		fmt.Fprintf(out, "No match for %q\n", result.Query)
		return
	}
	sources := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, string(src.Provider)+":"+src.ID)
	}
	fmt.Fprintf(out, "Matched: %s\n", result.Title())
	fmt.Fprintf(out, "Sources: %s\n", strings.Join(sources, ", "))
	if len(result.Books) > 0 {
		fmt.Fprintf(out, "Books:   %d\n", len(result.Books))
	}
}
