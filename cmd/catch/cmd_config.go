package main

import (
	"fmt"
	"os"

	"catchcli/internal/config"

	"github.com/spf13/cobra"
)

// =============================================================================
// CONFIG COMMANDS
// =============================================================================

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the catch configuration file",
		Args:  cobra.NoArgs,
		// Skips loading so a broken file can still be replaced.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigInit(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	cmd.AddCommand(
		initCmd,
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), c.configPath())
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) configPath() string {
	if c.cfgPath != "" {
		return c.cfgPath
	}
	return config.DefaultPath()
}

func (c *cli) runConfigInit(cmd *cobra.Command, force bool) error {
	path := c.configPath()
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists; pass --force to overwrite", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s.\n", path)
	return nil
}
