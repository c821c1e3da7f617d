package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
)

const jobTimeLayout = "2006-01-02 15:04:05"

// jobView is the structured output form of a job.
type jobView struct {
	ID         string `json:"id" yaml:"id"`
	SeriesID   string `json:"series_id" yaml:"series_id"`
	Status     string `json:"status" yaml:"status"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt  string `json:"started_at" yaml:"started_at"`
	FinishedAt string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Duration   string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

func newJobView(job jobs.MetadataJob) jobView {
	view := jobView{
		ID:        job.ID.String(),
		SeriesID:  job.SeriesID,
		Status:    string(job.Status),
		Message:   job.Message,
		StartedAt: job.StartedAt.Local().Format(jobTimeLayout),
	}
	if job.FinishedAt != nil {
		view.FinishedAt = job.FinishedAt.Local().Format(jobTimeLayout)
		view.Duration = job.Duration(time.Now()).Round(time.Millisecond).String()
	}
	return view
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage metadata jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsWatchCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status *jobs.Status
			if raw := strings.TrimSpace(statusFlag); raw != "" {
				parsed, ok := jobs.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("invalid status %q (want running, completed, or failed)", raw)
				}
				status = &parsed
			}
			return ctx.withStore(func(store *jobstore.Store) error {
				records, err := store.FindAll(cmd.Context(), status, limit, offset)
				if err != nil {
					return err
				}
				total, err := store.CountAll(cmd.Context(), status)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				color := shouldColorize(out)
				rows := make([][]string, 0, len(records))
				for _, job := range records {
					view := newJobView(job)
					rows = append(rows, []string{
						view.ID,
						view.SeriesID,
						colorize(view.Status, statusColor(job.Status), color),
						view.StartedAt,
						view.Duration,
						view.Message,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Series", "Status", "Started", "Duration", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				if total > len(records) {
					fmt.Fprintf(out, "Showing %d of %d jobs\n", len(records), total)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (running, completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum jobs to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Jobs to skip")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := validateFormat(format)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(store *jobstore.Store) error {
				job, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", id)
				}
				view := newJobView(*job)
				if outputFormat != formatText {
					return writeStructured(cmd, outputFormat, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", view.ID)
				fmt.Fprintf(out, "Series:   %s\n", view.SeriesID)
				fmt.Fprintf(out, "Status:   %s\n", colorize(view.Status, statusColor(job.Status), shouldColorize(out)))
				fmt.Fprintf(out, "Started:  %s\n", view.StartedAt)
				if view.FinishedAt != "" {
					fmt.Fprintf(out, "Finished: %s (%s)\n", view.FinishedAt, view.Duration)
				}
				if view.Message != "" {
					fmt.Fprintf(out, "Message:  %s\n", view.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, or yaml")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every job record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobstore.Store) error {
				removed, err := store.DeleteAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", pluralize(removed, "job"))
				return nil
			})
		},
	}
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a live job on the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			return daemonError(watchJob(cmd.Context(), cmd.OutOrStdout(), client, strings.TrimSpace(args[0])), cfg)
		},
	}
}

func statusColor(status jobs.Status) string {
	switch status {
	case jobs.StatusCompleted:
		return ansiGreen
	case jobs.StatusFailed:
		return ansiRed
	case jobs.StatusRunning:
		return ansiYellow
	default:
		return ""
	}
}

func pluralize(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}
