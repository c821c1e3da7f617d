package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tankobon/internal/api"
	"tankobon/internal/config"
	"tankobon/internal/jobstore"
	"tankobon/internal/logging"
)

const defaultCLILogLevel = "warn"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil || strings.TrimSpace(*c.logLevelFlag) == "" {
		return defaultCLILogLevel
	}
	return *c.logLevelFlag
}

// logger builds the stderr logger used by in-process commands.
func (c *commandContext) logger() (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       c.logLevel(),
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

func (c *commandContext) withStore(fn func(*jobstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job database: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.Server.Bind, cfg.Server.APIToken)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	return client, nil
}

// daemonError rewrites connection failures into a hint to start the daemon.
func daemonError(err error, cfg *config.Config) error {
	if err == nil || !api.IsUnavailable(err) {
		return err
	}
	return fmt.Errorf("connect to daemon at %s: %w; start it with `tankobon serve`", cfg.Server.Bind, err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
