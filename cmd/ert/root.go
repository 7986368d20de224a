package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mferrera/ert/internal/config"
	"github.com/mferrera/ert/internal/logging"
	"github.com/mferrera/ert/internal/storage"
	"github.com/mferrera/ert/internal/transmission"
)

// commandContext lazily loads configuration and opens the store so that
// commands which never touch storage (config init, help) stay cheap.
type commandContext struct {
	configFlag *string

	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger = logger
	return cfg, nil
}

func (c *commandContext) ensureStore() (*storage.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) orchestrator() (*transmission.Orchestrator, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	return transmission.NewOrchestrator(
		store,
		c.logger,
		transmission.WithMaxConcurrency(c.cfg.Transmit.MaxConcurrency),
	), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "ert",
		Short:         "Record storage and sampling for ensemble experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newExperimentCommand(ctx))

	return rootCmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ert configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *ctx.configFlag
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	})
	return cmd
}
