package main

import (
	"fmt"

	"catchcli/internal/scanner"
	"catchcli/internal/ui"

	"github.com/spf13/cobra"
)

func (c *cli) scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [dir]",
		Short: "List the files a run would read, without contacting the server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runScan,
	}
}

func (c *cli) runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		wd, err := c.projectDir()
		if err != nil {
			return err
		}
		dir = wd
	}

	files, err := scanner.Scan(cmd.Context(), dir, scanner.Options{
		MaxConcurrency: c.cfg.Scan.MaxConcurrency,
		IgnoreDirs:     c.cfg.Scan.IgnoreDirs,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No supported files under %s.\n", dir)
		return nil
	}

	table := ui.NewSimpleTable("Supported files", []string{"File Name", "File Path", "Size"})
	for _, f := range files {
		table.AddRow(f.Name(), f.Path, formatBytes(len(f.Content)))
	}
	fmt.Fprint(out, table.View(c.styles))
	fmt.Fprintf(out, "Total: %d files, %s\n", len(files), formatBytes(scanner.TotalBytes(files)))
	return nil
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
