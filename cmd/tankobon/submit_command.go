package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tankobon/internal/api"
	"tankobon/internal/jobs"
)

const watchPollInterval = 100 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags queryFlags
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <series-id>",
		Short: "Submit a resolution to the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return daemonError(err, cfg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s for %s (%q)\n", resp.JobID, req.SeriesID, req.SeriesName)
			if !watch {
				return nil
			}
			return watchJob(cmd.Context(), cmd.OutOrStdout(), client, resp.JobID)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow job events until the job finishes")
	return cmd
}

// watchJob prints events of a live job, then its final status. A FAILED job
// is returned as an error so the exit code reflects it.
func watchJob(ctx context.Context, out io.Writer, client *api.Client, id string) error {
	since := 0
	for {
		resp, err := client.Events(ctx, id, since, true)
		if errors.Is(err, api.ErrJobInactive) {
			break
		}
		if err != nil {
			return err
		}
		for _, env := range resp.Events {
			event, err := jobs.Decode(env)
			if err != nil {
				fmt.Fprintf(out, "  %s\n", env.Kind)
				continue
			}
			fmt.Fprintf(out, "  %s\n", jobs.Describe(event))
		}
		since = resp.Next
		if resp.Closed {
			break
		}
	}

	job, err := waitForFinalStatus(ctx, client, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Job %s: %s\n", job.ID, job.Status)
	if job.Status == string(jobs.StatusFailed) {
		return fmt.Errorf("job failed: %s", job.Message)
	}
	return nil
}

// waitForFinalStatus polls until the tracker has persisted the terminal
// state; the flow closes slightly before the store is updated.
func waitForFinalStatus(ctx context.Context, client *api.Client, id string) (api.Job, error) {
	for {
		job, err := client.Job(ctx, id)
		if err != nil {
			return api.Job{}, err
		}
		if !job.Active && job.Status != string(jobs.StatusRunning) {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return api.Job{}, ctx.Err()
		case <-time.After(watchPollInterval):
		}
	}
}
