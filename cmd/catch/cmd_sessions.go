package main

import (
	"fmt"
	"os"
	"time"

	"catchcli/internal/session"
	"catchcli/internal/ui"

	"github.com/spf13/cobra"
)

// =============================================================================
// SESSION MARKER COMMANDS
// =============================================================================

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect or remove local session markers",
		Long: `Session markers are catch_session_<id> folders created in the temp
directory when an onboarding session starts in the browser.

Subcommands:
  list   - List markers
  purge  - Remove every marker`,
		Args: cobra.NoArgs,
		RunE: c.runSessionsList,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List session markers",
			Args:  cobra.NoArgs,
			RunE:  c.runSessionsList,
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Remove every session marker",
			Args:  cobra.NoArgs,
			RunE:  c.runSessionsPurge,
		},
	)
	return cmd
}

func (c *cli) runSessionsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := c.cfg.TempDir()

	markers, err := session.Markers(dir)
	if err != nil {
		return err
	}
	if len(markers) == 0 {
		fmt.Fprintf(out, "No session markers in %s.\n", dir)
		return nil
	}

	table := ui.NewSimpleTable("📁 Session markers", []string{"Session ID", "Created", "Path"})
	for _, m := range markers {
		created := "-"
		if fi, err := os.Stat(m.Path); err == nil {
			created = fi.ModTime().Format(time.DateTime)
		}
		table.AddRow(m.ID, created, m.Path)
	}
	fmt.Fprint(out, table.View(c.styles))

	if len(markers) > 1 {
		fmt.Fprintln(out, c.styles.Warning.Render(
			"More than one marker: a run will remove them all. Start a new session in the browser."))
	}
	return nil
}

func (c *cli) runSessionsPurge(cmd *cobra.Command, args []string) error {
	n, err := session.Purge(c.cfg.TempDir())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session marker(s).\n", n)
	return nil
}
