package preflight

import (
	"context"
	"net/http"
	"time"

	"tankobon/internal/config"
)

const remoteCheckTimeout = 5 * time.Second

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	client := &http.Client{Timeout: remoteCheckTimeout}
	for _, id := range cfg.Providers.Enabled() {
		section := cfg.Providers.Get(id)
		results = append(results, CheckEndpoint(ctx, client, "Provider "+string(id), section.BaseURL))
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckEndpoint(ctx, client, "ntfy", cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
