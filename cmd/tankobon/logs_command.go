package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tankobon/internal/api"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var component string
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			query := api.LogQuery{
				Tail:      true,
				Limit:     lines,
				Component: component,
				JobID:     jobID,
			}
			err = streamLogs(cmd.Context(), cmd.OutOrStdout(), client, query, follow)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return daemonError(err, cfg)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new events")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Recent events to show first")
	cmd.Flags().StringVar(&component, "component", "", "Only events from this component")
	cmd.Flags().StringVar(&jobID, "job", "", "Only events for this job ID")
	return cmd
}

func streamLogs(ctx context.Context, out io.Writer, client *api.Client, query api.LogQuery, follow bool) error {
	resp, err := client.Logs(ctx, query)
	if err != nil {
		return err
	}
	printLogEvents(out, resp.Events)
	if !follow {
		return nil
	}

	query.Tail = false
	query.Follow = true
	query.Limit = 0
	query.Since = resp.Next
	for {
		resp, err := client.Logs(ctx, query)
		if err != nil {
			return err
		}
		printLogEvents(out, resp.Events)
		query.Since = resp.Next
	}
}

func printLogEvents(out io.Writer, events []api.LogEvent) {
	for _, evt := range events {
		var b strings.Builder
		b.WriteString(evt.Timestamp.Local().Format(jobTimeLayout))
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(evt.Level))
		if evt.Component != "" {
			b.WriteString(" [" + evt.Component + "]")
		}
		b.WriteByte(' ')
		b.WriteString(evt.Message)
		if evt.JobID != "" {
			b.WriteString(" job=" + evt.JobID)
		}
		if evt.Provider != "" {
			b.WriteString(" provider=" + evt.Provider)
		}
		fmt.Fprintln(out, b.String())
	}
}
